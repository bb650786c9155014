package monitor

import (
	"crypto/subtle"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// maxLogTail caps how much of the log file /logs returns.
const maxLogTail = 256 << 10

// Register mounts /monitor and /logs. Both are skipped when token is empty.
func Register(router *gin.Engine, logPath, token string) {
	if token == "" {
		return
	}
	RegisterMonitorPage(router)
	RegisterLogsRoute(router, logPath, token)
}

func RegisterMonitorPage(router *gin.Engine) {
	router.GET("/monitor", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(monitorPage))
	})
}

// RegisterLogsRoute serves the tail of the service log. The token is passed
// as ?token= or an X-Monitor-Token header.
func RegisterLogsRoute(router *gin.Engine, logPath, token string) {
	router.GET("/logs", func(c *gin.Context) {
		given := c.Query("token")
		if given == "" {
			given = c.GetHeader("X-Monitor-Token")
		}
		if subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		logData, err := readTail(logPath, maxLogTail)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to read log"})
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", logData)
	})
}

func readTail(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() > limit {
		if _, err := f.Seek(info.Size()-limit, io.SeekStart); err != nil {
			return nil, err
		}
	}
	return io.ReadAll(f)
}

const monitorPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>Document Routing Monitor</title>
  <style>
    body { background: #111; color: #ddd; font-family: sans-serif; padding: 20px; }
    #status { font-size: 1.2rem; margin-bottom: 1rem; }
    #logs { background: #000; padding: 1rem; max-height: 70vh; overflow: auto; white-space: pre-wrap; }
    button { margin-bottom: 1rem; }
  </style>
</head>
<body>
  <h1>Document Routing Monitor</h1>
  <div id="status">Status: checking...</div>
  <input id="token" type="password" placeholder="monitor token" />
  <button onclick="toggleLive()" id="toggleBtn">Pause Live Logs</button>
  <pre id="logs">Enter the monitor token to load logs.</pre>

  <script>
    let liveLogs = true;
    const logsElement = document.getElementById('logs');
    const statusElement = document.getElementById('status');
    const toggleBtn = document.getElementById('toggleBtn');

    function fetchStatus() {
      fetch('/api/v1/health')
        .then(res => res.json())
        .then(data => { statusElement.textContent = 'Status: ' + (data.status === 'ok' ? 'online' : 'offline'); })
        .catch(() => { statusElement.textContent = 'Status: offline'; });
    }

    function fetchLogs() {
      const token = document.getElementById('token').value;
      if (!liveLogs || !token) return;
      fetch('/logs', { headers: { 'X-Monitor-Token': token } })
        .then(res => res.text())
        .then(data => {
          logsElement.textContent = data;
          logsElement.scrollTop = logsElement.scrollHeight;
        });
    }

    function toggleLive() {
      liveLogs = !liveLogs;
      toggleBtn.textContent = liveLogs ? 'Pause Live Logs' : 'Resume Live Logs';
    }

    fetchStatus();
    setInterval(fetchStatus, 5000);
    setInterval(fetchLogs, 5000);
  </script>
</body>
</html>`
