package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/harentsoaR/medadmin-api/internal/models"
	"github.com/harentsoaR/medadmin-api/internal/store"
	"github.com/harentsoaR/medadmin-api/internal/utils"
	"github.com/harentsoaR/medadmin-api/internal/watch"
)

type sseEvent struct {
	name string
	data string
}

func readEvent(sc *bufio.Scanner) (sseEvent, bool) {
	var ev sseEvent
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "" && ev.name != "":
			return ev, true
		}
	}
	return ev, false
}

func (s *HandlerSuite) openStream(srv *httptest.Server, path, token string) (*http.Response, *bufio.Scanner) {
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	s.Require().NoError(err)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: token})

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Contains(resp.Header.Get("Content-Type"), "text/event-stream")
	return resp, bufio.NewScanner(resp.Body)
}

func (s *HandlerSuite) TestStreamProjectionUnknown() {
	w := s.do(s.router, "GET", "/api/streams/everything", nil, s.adminToken)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerSuite) TestStreamProjectionPushesSnapshots() {
	ctx := context.Background()
	hub := watch.NewHub(s.store, utils.NewNopLogger(), nil)
	s.handler.Live = hub

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	resp, sc := s.openStream(srv, "/api/streams/pending-doctors", s.adminToken)
	defer resp.Body.Close()

	ev, ok := readEvent(sc)
	s.Require().True(ok)
	s.Equal("snapshot", ev.name)

	var snap SnapshotEvent
	s.Require().NoError(json.Unmarshal([]byte(ev.data), &snap))
	s.Require().Len(snap.Accounts, 1)
	s.Equal("doctor@example.com", snap.Accounts[0].Email)

	doctors, err := s.store.List(ctx, store.Where(store.Eq("role", models.RoleDoctor)))
	s.Require().NoError(err)
	s.Require().Len(doctors, 1)
	s.Require().NoError(s.store.Update(ctx, doctors[0].ID, models.Fields{"verified": true}))
	s.Require().NoError(hub.Refresh(ctx))

	ev, ok = readEvent(sc)
	s.Require().True(ok)
	s.Require().NoError(json.Unmarshal([]byte(ev.data), &snap))
	s.Empty(snap.Accounts)
}

func (s *HandlerSuite) TestStreamSessionEndsOnSignOut() {
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	resp, sc := s.openStream(srv, "/api/session/stream", s.adminToken)
	defer resp.Body.Close()

	ev, ok := readEvent(sc)
	s.Require().True(ok)
	s.Equal("session", ev.name)

	var got SessionEvent
	s.Require().NoError(json.Unmarshal([]byte(ev.data), &got))
	s.Equal("allow", got.Decision)

	s.Require().NoError(s.authSvc.SignOut(context.Background(), s.adminToken))

	ev, ok = readEvent(sc)
	s.Require().True(ok)
	s.Require().NoError(json.Unmarshal([]byte(ev.data), &got))
	s.Equal("redirect", got.Decision)
	s.Nil(got.State.Identity)

	_, ok = readEvent(sc)
	s.False(ok)
}
