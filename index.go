package main

import "net/http"

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Gandalf</title>
<meta name="description" content="Collaborative whiteboard relay server">
<style>
*{margin:0;padding:0;box-sizing:border-box}
:root{
--bg:#191919;
--card:#242424;
--border:#333;
--fg:#e5e5e5;
--muted:#737373;
--radius:6px;
}
body{
font-family:system-ui,-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Helvetica,Arial,sans-serif;
background:var(--bg);
color:var(--fg);
min-height:100vh;
display:flex;
align-items:center;
justify-content:center;
padding:24px;
}
.container{width:100%;max-width:400px;display:flex;flex-direction:column;align-items:center;gap:24px}
.title{font-size:20px;font-weight:600;letter-spacing:-0.01em}
.subtitle{font-size:12px;color:var(--muted);text-align:center;line-height:1.6}
.card{width:100%;background:var(--card);border:1px solid var(--border);border-radius:var(--radius);padding:16px}
.card code{font-size:12px;color:var(--fg)}
.row{display:flex;justify-content:space-between;font-size:12px;color:var(--muted);padding:4px 0}
</style>
</head>
<body>
<div class="container">
<div class="title">Gandalf</div>
<div class="subtitle">Whiteboard relay server. Rooms are ephemeral collaboration sessions; nothing is persisted.</div>
<div class="card">
<div class="row"><span>create room</span><code>GET /create-room</code></div>
<div class="row"><span>check room</span><code>GET /check-room?roomCode=</code></div>
<div class="row"><span>join</span><code>GET /ws?room=&amp;type=awareness</code></div>
<div class="row"><span>health</span><code>GET /health</code></div>
</div>
</div>
</body>
</html>`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}
