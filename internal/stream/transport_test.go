package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/marketlens/watchstream/internal/auth"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn, *http.Request)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn, r)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testTransportConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.BufferSize = 100
	return cfg
}

func TestDialWS_AttachesCredentials(t *testing.T) {
	var mu sync.Mutex
	var gotAuth string

	server := mockWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		mu.Unlock()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	tr, err := dialWS(context.Background(), testTransportConfig(wsURL(server)), auth.StaticToken("sess-xyz"), discardLogger())
	if err != nil {
		t.Fatalf("dialWS failed: %v", err)
	}
	defer tr.Close()

	mu.Lock()
	defer mu.Unlock()
	if gotAuth != "Bearer sess-xyz" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
}

func TestWSTransport_ReceivesFrames(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"price_update"}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	tr, err := dialWS(context.Background(), testTransportConfig(wsURL(server)), nil, discardLogger())
	if err != nil {
		t.Fatalf("dialWS failed: %v", err)
	}
	defer tr.Close()

	select {
	case msg := <-tr.Messages():
		if string(msg.Data) != `{"type":"price_update"}` {
			t.Errorf("frame = %q", msg.Data)
		}
		if msg.ReceivedAt.IsZero() {
			t.Error("ReceivedAt not set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
}

func TestWSTransport_ServerDropSurfacesError(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		// Drop immediately without a close handshake.
		conn.Close()
	})
	defer server.Close()

	tr, err := dialWS(context.Background(), testTransportConfig(wsURL(server)), nil, discardLogger())
	if err != nil {
		t.Fatalf("dialWS failed: %v", err)
	}
	defer tr.Close()

	select {
	case <-tr.Errors():
	case <-time.After(2 * time.Second):
		t.Fatal("no error surfaced after server drop")
	}
}

func TestWSTransport_CloseIsNormalAndIdempotent(t *testing.T) {
	closeCode := make(chan int, 1)

	server := mockWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		conn.SetCloseHandler(func(code int, text string) error {
			closeCode <- code
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	tr, err := dialWS(context.Background(), testTransportConfig(wsURL(server)), nil, discardLogger())
	if err != nil {
		t.Fatalf("dialWS failed: %v", err)
	}

	if err := tr.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	select {
	case code := <-closeCode:
		if code != websocket.CloseNormalClosure {
			t.Errorf("close code = %d, want %d", code, websocket.CloseNormalClosure)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the close frame")
	}

	// Closure must not surface as a transport failure.
	select {
	case err := <-tr.Errors():
		t.Errorf("unexpected error after Close: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}
