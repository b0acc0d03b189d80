// dockstub is a local emulation of the code dock service's strong search
// surface. It hands out client ids, accepts search WebSocket connections,
// and plays back a scripted sequence of log, tool, progress, and result
// frames. It exists for demos and manual testing of the docksearch client
// without a real dock server or LLM.
//
// Usage:
//
//	dockstub -addr :30089
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func main() {
	addr := flag.String("addr", ":30089", "listen address")
	frameDelay := flag.Duration("frame-delay", 150*time.Millisecond, "delay between scripted frames")
	flag.Parse()

	stub := &stubServer{frameDelay: *frameDelay}

	r := chi.NewRouter()
	r.Get("/strong_search/new_client_id", stub.newClientID)
	r.Get("/ws/strong_search/{clientID}", stub.searchSocket)
	r.Get("/codebases", stub.listCodebases)
	r.Post("/codebases/{name}/files/batch", stub.fileBatch)
	r.Post("/codebases/{name}/index", stub.triggerIndex)

	log.Printf("dockstub listening on %s", *addr)
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatal(err)
	}
}

type stubServer struct {
	frameDelay time.Duration
}

func (s *stubServer) newClientID(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"client_id": uuid.New().String()})
}

func (s *stubServer) listCodebases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, []map[string]any{
		{
			"name":              "demo",
			"code_path":         "/data/codebases/demo",
			"indexed":           true,
			"analyzer_ready":    true,
			"analyzer_progress": 1.0,
		},
	})
}

func (s *stubServer) fileBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FilePaths []string `json:"file_paths"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	contents := make(map[string]string, len(req.FilePaths))
	for _, path := range req.FilePaths {
		contents[path] = "// stub content for " + path + "\n"
	}
	writeJSON(w, map[string]any{"contents": contents})
}

func (s *stubServer) triggerIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status":   "accepted",
		"codebase": chi.URLParam(r, "name"),
	})
}

// searchSocket upgrades the connection, waits for the search request, then
// plays the scripted search.
func (s *stubServer) searchSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	clientID := chi.URLParam(r, "clientID")
	send := func(v any) bool {
		if s.frameDelay > 0 {
			time.Sleep(s.frameDelay)
		}
		return conn.WriteJSON(v) == nil
	}

	if !send(logFrame("info", "WebSocket connection established (ID: "+clientID+")")) {
		return
	}

	var req struct {
		CodebaseName string `json:"codebase_name"`
		Query        string `json:"query"`
	}
	if err := conn.ReadJSON(&req); err != nil {
		return
	}
	if req.CodebaseName == "" || req.Query == "" {
		_ = conn.WriteJSON(map[string]string{
			"type":  "error",
			"error": "missing required parameters: codebase_name and query",
		})
		return
	}

	log.Printf("search %q on %q from %s", req.Query, req.CodebaseName, clientID)
	start := time.Now()

	ts := func() float64 { return float64(time.Now().UnixNano()) / 1e9 }
	script := []any{
		logFrame("info", "starting strong search: "+req.Query),
		progressFrame(0.1, "initializing search"),
		toolFrame("tool_call", map[string]any{
			"tool_name":  "semantic_search",
			"parameters": map[string]any{"query": req.Query, "top_k": 8},
			"timestamp":  ts(),
		}),
		toolFrame("tool_output", map[string]any{
			"tool_name":      "semantic_search",
			"output_preview": `{"matches": 3}`,
			"is_output":      true,
			"timestamp":      ts(),
		}),
		progressFrame(0.45, "reading candidate files"),
		toolFrame("agent_thinking", map[string]any{
			"thought":   "the relevant logic appears to live in the auth package",
			"timestamp": ts(),
		}),
		toolFrame("tool_call", map[string]any{
			"tool_name":  "read_file",
			"parameters": map[string]any{"path": "auth/middleware.go"},
			"timestamp":  ts(),
		}),
		toolFrame("tool_output", map[string]any{
			"tool_name":      "read_file",
			"output_preview": "package auth ...",
			"is_output":      true,
			"timestamp":      ts(),
		}),
		progressFrame(0.9, "composing answer"),
	}
	for _, frame := range script {
		if !send(frame) {
			return
		}
	}

	send(map[string]any{
		"type": "result",
		"result": map[string]any{
			"answer": "The query \"" + req.Query + "\" is handled by the auth middleware, " +
				"which validates the session token before dispatching to the router.",
			"relevant_files": []string{"auth/middleware.go", "auth/session.go"},
			"project_structure": map[string]any{
				"auth": []string{"middleware.go", "session.go"},
			},
			"execution_time": time.Since(start).Seconds(),
		},
	})
}

func logFrame(level, message string) map[string]any {
	return map[string]any{"type": "log", "level": level, "message": message}
}

func toolFrame(level string, message map[string]any) map[string]any {
	return map[string]any{"type": "log", "level": level, "message": message}
}

func progressFrame(progress float64, status string) map[string]any {
	return map[string]any{"type": "progress", "progress": progress, "status": status}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
