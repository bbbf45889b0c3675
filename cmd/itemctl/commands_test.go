package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/itemregistry/pkg/app"
	"github.com/ghuser/itemregistry/pkg/database"
	"github.com/ghuser/itemregistry/pkg/logger"
	appsvcs "github.com/ghuser/itemregistry/services/item/application/services"
	itemdomain "github.com/ghuser/itemregistry/services/item/domain"
)

// newTestCLI shares one in-memory SQLite database across every command run.
func newTestCLI(t *testing.T) (*cli, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true

	db, err := database.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(db.Close)

	svc := appsvcs.New(&app.Application{Db: db, Logger: logger.Discard()}).Item
	out := &bytes.Buffer{}
	c := &cli{out: out}
	c.open = func(context.Context) (*env, error) {
		return &env{db: db, svc: svc, close: func() {}}, nil
	}
	return c, out
}

func execute(t *testing.T, c *cli, out *bytes.Buffer, args ...string) (string, error) {
	t.Helper()
	out.Reset()
	c.jsonOut = false
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	return out.String(), err
}

func createJSON(t *testing.T, c *cli, out *bytes.Buffer, name, group string) itemOut {
	t.Helper()
	s, err := execute(t, c, out, "create", name, "--group", group, "--json")
	require.NoError(t, err)
	var it itemOut
	require.NoError(t, json.Unmarshal([]byte(s), &it))
	return it
}

func TestItemctl_MigrateAndCRUD(t *testing.T) {
	c, out := newTestCLI(t)

	s, err := execute(t, c, out, "migrate")
	require.NoError(t, err)
	assert.Contains(t, s, "Migrations applied (sqlite)")

	a := createJSON(t, c, out, "Widget", "Primary")
	assert.Equal(t, "Widget", a.Name)
	assert.Equal(t, "Primary", a.Group)

	_, err = execute(t, c, out, "create", "Widget", "--group", "Primary")
	assert.ErrorIs(t, err, itemdomain.ErrItemAlreadyExists)

	s, err = execute(t, c, out, "get", a.ID.String())
	require.NoError(t, err)
	assert.Contains(t, s, "Widget")
	assert.Contains(t, s, "Primary Group")

	s, err = execute(t, c, out, "patch", a.ID.String(), "--group", "Secondary")
	require.NoError(t, err)
	assert.Contains(t, s, "Updated item "+a.ID.String())
	assert.Contains(t, s, "Secondary Group")

	_, err = execute(t, c, out, "update", a.ID.String(), "--name", "Gadget", "--group", "Primary")
	require.NoError(t, err)

	s, err = execute(t, c, out, "list")
	require.NoError(t, err)
	assert.Contains(t, s, "Gadget")
	assert.Contains(t, s, "Page 1, 1 of 1 items")

	s, err = execute(t, c, out, "delete", a.ID.String())
	require.NoError(t, err)
	assert.Contains(t, s, "Deleted "+a.ID.String())

	_, err = execute(t, c, out, "get", a.ID.String())
	assert.ErrorIs(t, err, itemdomain.ErrItemNotFound)
}

func TestItemctl_ListPastEnd(t *testing.T) {
	c, out := newTestCLI(t)
	_, err := execute(t, c, out, "migrate")
	require.NoError(t, err)
	createJSON(t, c, out, "A", "Primary")

	s, err := execute(t, c, out, "list", "--page", "5")
	require.NoError(t, err)
	assert.Equal(t, "No items on page 5 (1 total)\n", s)

	_, err = execute(t, c, out, "list", "--page", "0")
	assert.Error(t, err)
}

func TestItemctl_ArgumentErrors(t *testing.T) {
	c, out := newTestCLI(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad id", []string{"get", "nope"}, `invalid item id "nope"`},
		{"create without group", []string{"create", "X"}, `required flag(s) "group" not set`},
		{"update without name", []string{"update", "00000000-0000-0000-0000-000000000001", "--group", "Primary"}, `required flag(s) "name" not set`},
		{"unknown group", []string{"create", "X", "--group", "Other"}, "invalid item group"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.name == "unknown group" {
				_, err := execute(t, c, out, "migrate")
				require.NoError(t, err)
			}
			_, err := execute(t, c, out, tt.args...)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), "got %q", err.Error())
		})
	}
}

func TestItemctl_GroupFlagChoices(t *testing.T) {
	c, _ := newTestCLI(t)
	root := newRootCmd(c)

	for _, name := range []string{"create", "update", "patch"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Contains(t, cmd.Flags().Lookup("group").Usage, "Primary|Secondary", name)
	}

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{cobra.ShellCompRequestCmd, "create", "X", "--group", ""})
	require.NoError(t, root.Execute())
	assert.True(t, strings.HasPrefix(buf.String(), "Primary\nSecondary\n"), "got %q", buf.String())
}
