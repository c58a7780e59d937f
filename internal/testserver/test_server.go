// Package testserver runs the full HTTP surface against an in-memory
// database for end-to-end tests.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/cadence/internal/domain/adherence"
	"github.com/rpggio/cadence/internal/domain/event"
	"github.com/rpggio/cadence/internal/domain/report"
	"github.com/rpggio/cadence/internal/domain/timeline"
	"github.com/rpggio/cadence/internal/mcp"
	"github.com/rpggio/cadence/internal/sqlite"
	"github.com/rpggio/cadence/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Keys     *sqlite.APIKeyRepository
	Token    string
	TenantID string
}

// New starts a server with bearer auth enabled on both /rpc and /mcp and
// registers token for tenantID.
func New(t *testing.T, token, tenantID string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	timelineRepo := sqlite.NewTimelineRepository(db)
	eventRepo := sqlite.NewEventRepository(db)
	recordRepo := sqlite.NewRecordRepository(db)

	timelineSvc := timeline.NewService(timelineRepo, nil)
	services := mcp.Services{
		Events:    event.NewService(eventRepo, timelineSvc, event.PolicyResolver{}, nil).WithHistory(sqlite.NewHistoryRepository(db)),
		Schedules: timelineSvc,
		Records:   adherence.NewService(recordRepo, nil),
		Reports:   report.NewService(timelineRepo, eventRepo, recordRepo, nil),
	}

	keys := sqlite.NewAPIKeyRepository(db)
	mcpServer := mcp.NewServer(mcp.Config{
		Services:      services,
		Resolver:      keys,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer }, nil)

	server := httptest.NewServer(transport.NewServer(
		mcp.NewHandler(services, nil),
		mcpHandler,
		transport.AuthMiddleware(keys),
	))

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Keys:     keys,
		Token:    token,
		TenantID: tenantID,
	}

	require.NoError(t, ts.AddAPIKey(token, tenantID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

func (ts *TestServer) AddAPIKey(token, tenantID string) error {
	return ts.Keys.Create(context.Background(), tenantID, token, "test")
}
