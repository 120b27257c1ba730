package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATABASE_URL", "file:"+filepath.Join(dir, "crm.db"))
	t.Setenv("APP_ENV", "test")
	return dir
}

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestMigrateImportScoreSegmentExport(t *testing.T) {
	dir := setupDB(t)

	out, _, err := runCmd(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema at version")

	src := filepath.Join(dir, "customers.csv")
	require.NoError(t, os.WriteFile(src, []byte(
		"name,email,company,company_size\n"+
			"Ada Lovelace,ada@example.com,Engines,250\n"+
			"Grace Hopper,grace@example.com,Navy,\n"), 0o600))

	out, _, err = runCmd(t, "import", "customers", src)
	require.NoError(t, err)
	assert.Equal(t, "imported 2 customers\n", out)

	out, _, err = runCmd(t, "score", "-top", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Lead scores (2 scored")
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "20")
	assert.NotContains(t, out, "Grace Hopper")

	out, _, err = runCmd(t, "segment")
	require.NoError(t, err)
	assert.Contains(t, out, "Grace Hopper")
	assert.Contains(t, out, "Low Value")

	dest := filepath.Join(dir, "export.csv")
	_, errOut, err := runCmd(t, "export", "-o", dest, "customers")
	require.NoError(t, err)
	assert.Contains(t, errOut, "exported 2 customers")

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "lead_score", records[0][7])
}

func TestRunRejectsBadInvocations(t *testing.T) {
	setupDB(t)

	_, errOut, err := runCmd(t)
	assert.Error(t, err)
	assert.Contains(t, errOut, "usage: crmctl")

	_, _, err = runCmd(t, "frobnicate")
	assert.EqualError(t, err, `unknown command "frobnicate"`)

	_, _, err = runCmd(t, "export")
	assert.Error(t, err)

	_, _, err = runCmd(t, "import", "customers")
	assert.Error(t, err)

	out, _, err := runCmd(t, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "migrate")
}
