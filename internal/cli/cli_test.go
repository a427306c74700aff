package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/thinkchat/internal/devserver"
)

var seedTime = time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC)

type cliHarness struct {
	t       *testing.T
	cfgPath string
	store   *devserver.Store
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()

	store := devserver.NewStore()
	require.NoError(t, store.Seed(seedTime))
	store.SetClock(func() time.Time { return seedTime })
	srv := httptest.NewServer(devserver.New(store).Handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	cfg := fmt.Sprintf(`global:
  data_dir: %q
  config_dir: %q
api:
  base_url: %q
logging:
  level: error
timeline:
  location: UTC
`, filepath.Join(dir, "data"), filepath.Join(dir, "config"), srv.URL)
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	return &cliHarness{t: t, cfgPath: cfgPath, store: store}
}

func (h *cliHarness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	a := &app{
		stdin:    strings.NewReader(stdin),
		stdout:   &out,
		stderr:   &errOut,
		isTTY:    func() bool { return false },
		readPass: func(string) (string, error) { return "", errors.New("no terminal") },
	}
	cmd := newRootCmd("test", a)
	cmd.SetArgs(append([]string{"--config", h.cfgPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	require.NoError(h.t, a.close())
	return out.String(), err
}

func (h *cliHarness) login() {
	h.t.Helper()
	_, err := h.run(devserver.DemoPassword+"\n", "login", "--email", devserver.DemoEmail, "--password-stdin")
	require.NoError(h.t, err)
}

func TestLoginStoresToken(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(devserver.DemoPassword+"\n", "login", "--email", devserver.DemoEmail, "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as parent@example.com")

	out, err = h.run("", "chats")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "Alan Turing")
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("nope\n", "login", "--email", devserver.DemoEmail, "--password-stdin")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password.", err.Error())
}

func TestLoginWithoutTerminalNeedsPasswordStdin(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "login", "--email", devserver.DemoEmail)
	var preflight *PreflightError
	require.ErrorAs(t, err, &preflight)
	assert.Contains(t, preflight.NextStep, "--password-stdin")
}

func TestCommandsRequireLogin(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "chats")
	var preflight *PreflightError
	require.ErrorAs(t, err, &preflight)
	assert.Equal(t, "not signed in", preflight.Message)
	assert.Equal(t, "thinkchat login", preflight.NextStep)
}

func TestLogoutForgetsToken(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")

	_, err = h.run("", "chats")
	var preflight *PreflightError
	require.ErrorAs(t, err, &preflight)
}

func TestChatsJSON(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "chats", "--json")
	require.NoError(t, err)

	var children []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &children))
	require.Len(t, children, 2)
}

func TestMessagesPrintsGroupedTimeline(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "messages", "1")
	require.NoError(t, err)

	want := strings.Join([]string{
		"Student: Hi! I finished the reading for today.",
		"Student: Can we go over fractions tomorrow?",
		"  12:00 PM",
		"",
		"You: Great job. Yes, after school.",
		"  12:05 PM",
		"",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestMessagesJSONMarksTimestamps(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "messages", "1", "--json")
	require.NoError(t, err)

	var msgs []messageJSON
	require.NoError(t, json.Unmarshal([]byte(out), &msgs))
	require.Len(t, msgs, 3)
	assert.False(t, msgs[0].ShowTimestamp)
	assert.Empty(t, msgs[0].Label)
	assert.True(t, msgs[1].ShowTimestamp)
	assert.Equal(t, "12:00 PM", msgs[1].Label)
	assert.True(t, msgs[2].ShowTimestamp)
	assert.Equal(t, "Parent", msgs[2].Sender)
}

func TestMessagesNeedsConversation(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, err := h.run("", "messages")
	var preflight *PreflightError
	require.ErrorAs(t, err, &preflight)
	assert.Equal(t, "no conversation selected", preflight.Message)
}

func TestUseSetsDefaultConversation(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "use", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Alan Turing")

	out, err = h.run("", "messages")
	require.NoError(t, err)
	assert.Contains(t, out, "You: Don't forget your lunch.")
	assert.Contains(t, out, "Student: Got it")

	out, err = h.run("", "chats")
	require.NoError(t, err)
	assert.Regexp(t, `\*\s+2\s+Alan Turing`, out)

	_, err = h.run("", "use", "--clear")
	require.NoError(t, err)
	out, err = h.run("", "use")
	require.NoError(t, err)
	assert.Contains(t, out, "no conversation selected")
}

func TestUseRejectsUnknownChild(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, err := h.run("", "use", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"99"`)
}

func TestSendPostsMessage(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "send", "1", "See you at pickup")
	require.NoError(t, err)
	assert.Equal(t, "Sent message 6\n", out)

	out, err = h.run("", "messages", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "You: See you at pickup\n  2:00 PM\n")
}

func TestSendReadsStdin(t *testing.T) {
	h := newHarness(t)
	h.login()
	_, err := h.run("", "use", "1")
	require.NoError(t, err)

	out, err := h.run("from a pipe\n", "send", "--json")
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.EqualValues(t, 6, resp["id"])
	assert.Equal(t, "1", resp["child"])
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, err := h.run("   \n", "send", "--to", "1")
	require.Error(t, err)
	assert.Equal(t, "message is empty", err.Error())
}

func TestSendReportsServerFailure(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.store.FailNextPosts(1)

	_, err := h.run("", "send", "1", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send failed")

	out, err := h.run("", "messages", "1")
	require.NoError(t, err)
	assert.NotContains(t, out, "hello")
}

func TestUIRequiresTerminal(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "ui")
	var preflight *PreflightError
	require.ErrorAs(t, err, &preflight)
}

func TestRootWithoutTerminalPrintsHelp(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("")
	require.NoError(t, err)
	assert.Contains(t, out, "thinkchat lists conversations")
}

func TestAPIURLFlagOverridesConfig(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "--api-url", "not a url", "chats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url")
}
