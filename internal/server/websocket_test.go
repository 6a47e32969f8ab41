package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"viralpik/internal/models"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = e.app.Listener(ln) }()
	t.Cleanup(func() {
		_ = e.srv.hub.Shutdown(context.Background())
		_ = e.app.ShutdownWithTimeout(time.Second)
	})
	return ln.Addr().String()
}

func (e *testEnv) ticket(t *testing.T, token string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/ws/ticket", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ticket, _ := decode[map[string]interface{}](t, resp)["ticket"].(string)
	require.NotEmpty(t, ticket)
	return ticket
}

type wireEvent struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

func TestWebsocket_LiveModerationEvent(t *testing.T) {
	env := newTestEnv(t)
	creator, creatorToken := env.profile(t, "livemaker", func(p *models.Profile) { p.IsCreator = true })
	_, adminToken := env.profile(t, "liveboss", func(p *models.Profile) { p.IsAdmin = true })
	pending := env.asset(t, creator.ID, models.AssetStatusPending, "live one")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, env.srv.hub.StartWiring(ctx, env.srv.notifier))

	ticket := env.ticket(t, creatorToken)
	addr := env.listen(t)

	conn, _, err := gorillaws.DefaultDialer.Dial("ws://"+addr+"/api/ws?ticket="+ticket, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var hello wireEvent
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello.Type)
	assert.Equal(t, float64(creator.ID), hello.Payload["user_id"])
	assert.True(t, env.srv.hub.IsOnline(ctx, creator.ID))

	req, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("http://%s/api/admin/assets/%d/approve", addr, pending.ID), nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ev wireEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventAssetApproved, ev.Type)
	assert.Equal(t, float64(pending.ID), ev.Payload["asset_id"])

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return !env.srv.hub.IsOnline(ctx, creator.ID) },
		2*time.Second, 20*time.Millisecond)
}

func TestWebsocket_SpentTicketRejected(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.profile(t, "twice", nil)
	ticket := env.ticket(t, token)
	addr := env.listen(t)

	conn, _, err := gorillaws.DefaultDialer.Dial("ws://"+addr+"/api/ws?ticket="+ticket, nil)
	require.NoError(t, err)
	_ = conn.Close()

	_, resp, err := gorillaws.DefaultDialer.Dial("ws://"+addr+"/api/ws?ticket="+ticket, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMailModerationIfOffline(t *testing.T) {
	env := newTestEnv(t)
	creator, _ := env.profile(t, "mailme", func(p *models.Profile) {
		p.IsCreator = true
		p.DisplayName = "Mia"
	})
	asset := env.asset(t, creator.ID, models.AssetStatusRejected, "blurry pack")
	asset.RejectionReason = "preview is blurry"

	type sent struct{ to, subject, body string }
	var got []sent
	send := func(_ context.Context, to, subject, body string) error {
		got = append(got, sent{to, subject, body})
		return nil
	}
	ctx := context.Background()

	require.NoError(t, env.srv.mailModerationIfOffline(ctx, asset, send))
	require.Len(t, got, 1)
	assert.Equal(t, "mailme@example.com", got[0].to)
	assert.Contains(t, got[0].subject, "blurry pack")
	assert.Contains(t, got[0].body, "Hi Mia")
	assert.Contains(t, got[0].body, "preview is blurry")

	sock, err := env.srv.hub.Register(creator.ID, nil)
	require.NoError(t, err)
	defer env.srv.hub.UnregisterClient(sock)
	require.NoError(t, env.srv.mailModerationIfOffline(ctx, asset, send))
	assert.Len(t, got, 1, "online creators get the socket event only")

	asset.Status = models.AssetStatusApproved
	subject, body := moderationEmail(creator, asset)
	assert.Contains(t, subject, "is live")
	assert.Contains(t, body, "approved")
}
