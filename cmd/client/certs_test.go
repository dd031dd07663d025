package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/nomoslink/internal/client/remote"
)

func TestCertsInitAndIssue(t *testing.T) {
	dir := t.TempDir()
	out := &bytes.Buffer{}

	cmd := newRootCommand(strings.NewReader(""), out)
	cmd.SetArgs([]string{"certs", "init", "--dir", dir, "--device", "front-desk"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `device "front-desk"`)

	hc, err := remote.LoadClientCertificate(
		filepath.Join(dir, "client.crt"), filepath.Join(dir, "client.key"), filepath.Join(dir, "ca.crt"))
	require.NoError(t, err)
	assert.NotNil(t, hc)

	out.Reset()
	cmd = newRootCommand(strings.NewReader(""), out)
	cmd.SetArgs([]string{"certs", "issue", "records-room", "--dir", dir})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "records-room.crt")

	_, err = remote.LoadClientCertificate(
		filepath.Join(dir, "records-room.crt"), filepath.Join(dir, "records-room.key"), filepath.Join(dir, "ca.crt"))
	require.NoError(t, err)
}

func TestCertsIssue_WithoutCA(t *testing.T) {
	cmd := newRootCommand(strings.NewReader(""), &bytes.Buffer{})
	cmd.SetArgs([]string{"certs", "issue", "front-desk", "--dir", t.TempDir()})
	assert.Error(t, cmd.Execute())
}
