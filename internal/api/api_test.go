package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/zappybot/zappy/internal/models"
	"github.com/zappybot/zappy/internal/testutil"
)

func decodeAPIResponse(t *testing.T, resp *http.Response) models.APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var out models.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode API response: %v", err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	testutil.MustNoError(t, err, "health request")
	testutil.AssertEqual(t, resp.StatusCode, http.StatusOK, "health status")
	out := decodeAPIResponse(t, resp)
	testutil.AssertEqual(t, out.Status, "ok", "health body status")
}

func TestListThreads(t *testing.T) {
	ts, _, st := newTestServer(t)
	_, err := st.GetOrCreateThread("user-1")
	testutil.MustNoError(t, err, "seed thread")

	resp, err := http.Get(ts.URL + "/api/threads")
	testutil.MustNoError(t, err, "list request")
	testutil.AssertEqual(t, resp.StatusCode, http.StatusOK, "list status")

	out := decodeAPIResponse(t, resp)
	threads, ok := out.Result.([]interface{})
	if !ok || len(threads) != 1 {
		t.Fatalf("expected 1 thread in result, got %#v", out.Result)
	}
}

func TestListMessagesUnknownThread(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/threads/no-such-thread/messages")
	testutil.MustNoError(t, err, "messages request")
	testutil.AssertEqual(t, resp.StatusCode, http.StatusNotFound, "unknown thread status")
	out := decodeAPIResponse(t, resp)
	testutil.AssertEqual(t, out.Status, "error", "unknown thread body status")
}

func TestListMessages(t *testing.T) {
	ts, _, st := newTestServer(t)
	thread, err := st.GetOrCreateThread("user-1")
	testutil.MustNoError(t, err, "seed thread")
	_, err = st.CreateMessage(models.CreateMessageInput{SenderSSID: "user-1", Content: "hello"})
	testutil.MustNoError(t, err, "seed message")

	resp, err := http.Get(ts.URL + "/api/threads/" + thread.ID + "/messages")
	testutil.MustNoError(t, err, "messages request")
	testutil.AssertEqual(t, resp.StatusCode, http.StatusOK, "messages status")

	out := decodeAPIResponse(t, resp)
	messages, ok := out.Result.([]interface{})
	if !ok || len(messages) != 1 {
		t.Fatalf("expected 1 message in result, got %#v", out.Result)
	}
}

func TestClearThread(t *testing.T) {
	ts, _, st := newTestServer(t)
	thread, err := st.GetOrCreateThread("user-1")
	testutil.MustNoError(t, err, "seed thread")
	_, err = st.CreateMessage(models.CreateMessageInput{SenderSSID: "user-1", Content: "hello"})
	testutil.MustNoError(t, err, "seed message")

	resp, err := http.Post(ts.URL+"/api/threads/"+thread.ID+"/clear", "application/json", nil)
	testutil.MustNoError(t, err, "clear request")
	testutil.AssertEqual(t, resp.StatusCode, http.StatusOK, "clear status")
	resp.Body.Close()

	messages, err := st.ListMessages(thread.ID)
	testutil.MustNoError(t, err, "list after clear")
	testutil.AssertEqual(t, len(messages), 0, "messages after clear")
}

func TestInitiateFlow(t *testing.T) {
	ts, disp, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/flows/initiate", "application/json",
		strings.NewReader(`{"ssid": "user-1", "flow": "order"}`))
	testutil.MustNoError(t, err, "initiate request")
	testutil.AssertEqual(t, resp.StatusCode, http.StatusOK, "initiate status")
	resp.Body.Close()

	select {
	case flowType := <-disp.initiated:
		testutil.AssertEqual(t, flowType, models.FlowTypeOrder, "initiated flow")
	case <-time.After(time.Second):
		t.Fatal("flow initiation never reached the dispatcher")
	}
}

func TestInitiateFlowRejectsBadFlow(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/flows/initiate", "application/json",
		strings.NewReader(`{"ssid": "user-1", "flow": "bogus"}`))
	testutil.MustNoError(t, err, "initiate request")
	testutil.AssertEqual(t, resp.StatusCode, http.StatusBadRequest, "bad flow status")
	resp.Body.Close()
}

func TestInitiateFlowRequiresSSID(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/flows/initiate", "application/json",
		strings.NewReader(`{"flow": "order"}`))
	testutil.MustNoError(t, err, "initiate request")
	testutil.AssertEqual(t, resp.StatusCode, http.StatusBadRequest, "missing ssid status")
	resp.Body.Close()
}
