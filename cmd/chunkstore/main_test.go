package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/jaywantadh/chunkstore/config"
	"github.com/jaywantadh/chunkstore/internal/transfer"
	"github.com/jaywantadh/chunkstore/pkg/logging"
)

const helloAddress = "3a4b1e347e562f4b564dc61b64fad3000aa376ed475346553802ec71c3d5bce1" +
	"d7a93b97cd1c5405080c11c81dad2bfdb8205eed9ba021d72fd669d9d3e9dc75"

func newTestServer(t *testing.T) string {
	return newTestServerWithRecords(t, "")
}

func newTestServerWithRecords(t *testing.T, metadataPath string) string {
	t.Helper()

	cfg := &config.AppConfig{
		NodeID:       "cli-test",
		Backend:      config.BackendMemory,
		MetadataPath: metadataPath,
	}
	handler, cleanup, err := newHandler(context.Background(), cfg, logging.New(&bytes.Buffer{}, false))
	require.NoError(t, err)
	t.Cleanup(cleanup)

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts.URL
}

func run(t *testing.T, server string, args ...string) (string, int) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := newApp(&stdout, &stderr)
	argv := append([]string{"chunkstore", "--config", t.TempDir(), "--server", server}, args...)
	err := app.Run(argv)
	if err != nil {
		return err.Error(), exitCode(err)
	}
	return stdout.String(), exitOK
}

func TestPutGetRoundTrip(t *testing.T) {
	server := newTestServer(t)

	out, code := run(t, server, "put", "hello")
	require.Equal(t, exitOK, code, out)
	assert.Equal(t, "> 201 Created\n"+server+"/chunk/"+helloAddress+"\n", out)

	out, code = run(t, server, "put", "hello")
	require.Equal(t, exitOK, code, out)
	assert.Equal(t, "> 204 No Content\n"+server+"/chunk/"+helloAddress+"\n", out)

	out, code = run(t, server, "get", helloAddress)
	require.Equal(t, exitOK, code, out)
	assert.Equal(t, "> 200 OK\n\"hello\"\n", out)

	out, code = run(t, server, "get", "--raw", helloAddress)
	require.Equal(t, exitOK, code, out)
	assert.Len(t, out, 64)
	assert.True(t, strings.HasPrefix(out, "hello\x00"))

	out, code = run(t, server, "list")
	require.Equal(t, exitOK, code, out)
	assert.Equal(t, helloAddress+"\n", out)
}

func TestAddressIsOffline(t *testing.T) {
	out, code := run(t, "http://127.0.0.1:1", "address", "hello")
	require.Equal(t, exitOK, code, out)
	assert.Equal(t, helloAddress+"\n", out)
}

func TestGetUnknownAddress(t *testing.T) {
	server := newTestServer(t)

	out, code := run(t, server, "get", strings.Repeat("ab", 64))
	assert.Equal(t, exitStatus, code)
	assert.Equal(t, "> 404 no such chunk", out)
}

func TestDelete(t *testing.T) {
	server := newTestServer(t)

	_, code := run(t, server, "put", "hello")
	require.Equal(t, exitOK, code)

	out, code := run(t, server, "delete", helloAddress)
	require.Equal(t, exitOK, code, out)
	assert.Equal(t, "> deleted\n", out)

	_, code = run(t, server, "delete", helloAddress)
	assert.Equal(t, exitStatus, code)
}

func TestStatWithoutRecordIndex(t *testing.T) {
	server := newTestServer(t)

	_, code := run(t, server, "put", "hello")
	require.Equal(t, exitOK, code)

	out, code := run(t, server, "stat", helloAddress)
	assert.Equal(t, exitStatus, code)
	assert.Equal(t, "> 404 record index disabled", out)
}

func TestStatAll(t *testing.T) {
	server := newTestServerWithRecords(t, filepath.Join(t.TempDir(), "meta"))

	_, code := run(t, server, "put", "hello")
	require.Equal(t, exitOK, code)

	out, code := run(t, server, "stat", "--all")
	require.Equal(t, exitOK, code, out)
	assert.True(t, strings.HasPrefix(out, helloAddress+" 64 1 "), out)

	out, code = run(t, server, "stat", helloAddress)
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "writes:     1\n")
}

func TestTimeoutMustBePositive(t *testing.T) {
	// an unbounded request must never be configurable from the command line
	for _, timeout := range []string{"0s", "-1s"} {
		out, code := run(t, "http://127.0.0.1:1", "--timeout", timeout, "put", "x")
		assert.Equal(t, exitUsage, code, timeout)
		assert.Contains(t, out, "request_timeout must be positive")
	}
}

func TestMalformedAddress(t *testing.T) {
	// the server is never contacted
	for _, arg := range []string{"xyz", strings.ToUpper(helloAddress), helloAddress[:64]} {
		out, code := run(t, "http://127.0.0.1:1", "get", arg)
		assert.Equal(t, exitUsage, code, out)
	}

	_, code := run(t, "http://127.0.0.1:1", "get")
	assert.Equal(t, exitUsage, code)
}

func TestTransportFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	url := "http://" + ln.Addr().String()
	ln.Close()

	out, code := run(t, url, "put", "hello")
	assert.Equal(t, exitTransport, code)
	assert.True(t, strings.HasPrefix(out, "> "), out)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitUsage, exitCode(errors.New("plain")))
	assert.Equal(t, exitIntegrity, exitCode(failure(&transfer.IntegrityError{Size: 3})))
	assert.Equal(t, exitStatus, exitCode(failure(&transfer.StatusError{Op: "get", Code: 500, Reason: "boom"})))
	assert.Equal(t, exitTransport, exitCode(failure(&transfer.TransportError{Op: "put", Err: errors.New("refused")})))

	var coder cli.ExitCoder
	require.True(t, errors.As(failure(&transfer.StatusError{Code: 404, Reason: "no such chunk"}), &coder))
	assert.Equal(t, "> 404 no such chunk", coder.Error())
}
