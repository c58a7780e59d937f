package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/cadence/internal/testserver"
	"github.com/rpggio/cadence/internal/transport"
	"github.com/stretchr/testify/require"
)

func rpc(t *testing.T, ts *testserver.TestServer, token, method string, params any) transport.Response {
	t.Helper()
	body, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out transport.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHTTP_RPCWorkflow(t *testing.T) {
	ts := testserver.New(t, "secret-token", "study1")

	out := rpc(t, ts, ts.Token, "get_timeline", map[string]any{})
	require.NotNil(t, out.Error)
	require.Equal(t, transport.ErrApplication, out.Error.Code)

	out = rpc(t, ts, ts.Token, "publish_schedule", map[string]any{"definition": diarySchedule})
	require.Nil(t, out.Error)

	out = rpc(t, ts, ts.Token, "record_event", map[string]any{
		"user_id":   "u1",
		"event_id":  "enrollment",
		"timestamp": "2022-03-01T09:00:00-08:00",
	})
	require.Nil(t, out.Error)

	out = rpc(t, ts, ts.Token, "get_study_adherence", map[string]any{
		"user_id": "u1",
		"now":     "2022-03-05T12:00:00-08:00",
	})
	require.Nil(t, out.Error)
	report, ok := out.Result.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "done", report["progression"])
	require.EqualValues(t, 0, report["adherence_percent"])
}

func TestHTTP_RPCRejectsUnknownToken(t *testing.T) {
	ts := testserver.New(t, "secret-token", "study1")

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBufferString(`{"jsonrpc":"2.0","id":1,"method":"list_events","params":{"user_id":"u1"}}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTP_KeysAreTenantScoped(t *testing.T) {
	ts := testserver.New(t, "study1-token", "study1")
	require.NoError(t, ts.AddAPIKey("study2-token", "study2"))

	out := rpc(t, ts, "study1-token", "publish_schedule", map[string]any{"definition": diarySchedule})
	require.Nil(t, out.Error)

	out = rpc(t, ts, "study2-token", "get_timeline", map[string]any{})
	require.NotNil(t, out.Error)
	data, ok := out.Error.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "SCHEDULE_NOT_FOUND", data["code"])
}

type bearerTransport struct {
	token string
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return http.DefaultTransport.RoundTrip(req)
}

func TestHTTP_StreamableMCP(t *testing.T) {
	ts := testserver.New(t, "secret-token", "study1")
	ctx := context.Background()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearerTransport{token: ts.Token}},
	}, nil)
	require.NoError(t, err)
	defer session.Close()

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "publish_schedule",
		Arguments: map[string]any{"definition": diarySchedule},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	result, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "get_timeline",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)

	var timeline struct {
		Timeline struct {
			Metadata []json.RawMessage `json:"metadata"`
		} `json:"timeline"`
	}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &timeline))
	require.Len(t, timeline.Timeline.Metadata, 2)
}
