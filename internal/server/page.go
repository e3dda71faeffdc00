package server

// indexHTML is the whole monitor UI: a live tree view over the websocket
// feed, with a restart control. Kept inline so the binary stays a single
// artifact.
const indexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>ticktree monitor</title>
<style>
  body { background: #11151c; color: #d6dee8; font: 14px/1.5 monospace; margin: 24px; }
  h1 { font-size: 16px; }
  .ok { color: #6fd18b; } .fail { color: #e06c75; } .run { color: #e5c07b; }
  #tree { white-space: pre; background: #171c26; padding: 16px; border-radius: 6px; }
  table { border-collapse: collapse; margin-top: 16px; }
  td, th { padding: 2px 12px; text-align: left; }
  th { color: #7a869a; }
  button { background: #2b3d55; color: #d6dee8; border: 0; padding: 6px 14px;
           border-radius: 4px; font: inherit; cursor: pointer; }
</style>
</head>
<body>
<h1>ticktree <span id="tree-name"></span></h1>
<div>tick <span id="tick">-</span> &middot; state <span id="state">-</span> &middot;
  <span id="duration">-</span> ms &middot; <button id="restart">restart</button></div>
<div id="tree">waiting for ticks...</div>
<table>
  <thead><tr><th>#</th><th>node</th><th>type</th><th>state</th><th>ms</th></tr></thead>
  <tbody id="nodes"></tbody>
</table>
<script>
const stateClass = s => s === "SUCCESS" ? "ok" : s === "FAILURE" ? "fail" : "run";
let lastTreeFetch = 0;

function onFrame(frame) {
  document.getElementById("tree-name").textContent = frame.tree;
  document.getElementById("tick").textContent = frame.tick;
  const state = document.getElementById("state");
  state.textContent = frame.state;
  state.className = stateClass(frame.state);
  document.getElementById("duration").textContent = frame.duration_ms.toFixed(2);

  const rows = (frame.nodes || []).map(n =>
    "<tr><td>" + n.exec_index + "</td><td>" + n.name + "</td><td>" + n.node_type +
    "</td><td class=\"" + stateClass(n.state) + "\">" + n.state + "</td><td>" +
    n.duration_ms.toFixed(2) + "</td></tr>");
  document.getElementById("nodes").innerHTML = rows.join("");

  const now = Date.now();
  if (now - lastTreeFetch > 500) {
    lastTreeFetch = now;
    fetch("/api/tree").then(r => r.text()).then(t => {
      document.getElementById("tree").textContent = t;
    });
  }
}

function connect() {
  const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
  ws.onmessage = ev => onFrame(JSON.parse(ev.data));
  ws.onclose = () => setTimeout(connect, 1000);
}
connect();

document.getElementById("restart").onclick = () => fetch("/restart", {method: "POST"});
</script>
</body>
</html>
`
