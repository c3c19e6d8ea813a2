package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/onsi/gomega"

	reportapp "github.com/checho651/bfx-report/internal/app"
	"github.com/checho651/bfx-report/internal/config"
)

// ServerTestHelper manages the report server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	baseURL    string
	address    string
	httpClient *http.Client
	app        *reportapp.ReportApp
}

// NewServerTestHelper creates a new server test helper listening on a free
// local port
func NewServerTestHelper(ctx context.Context, configPath string) *ServerTestHelper {
	address := fmt.Sprintf("127.0.0.1:%d", freePort())
	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		address:    address,
		baseURL:    "http://" + address,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func freePort() int {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = l.Close()
	}()
	return l.Addr().(*net.TCPAddr).Port
}

// StartServer starts the report server programmatically
func (s *ServerTestHelper) StartServer() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := reportapp.NewReportApp(s.ctx,
		reportapp.WithConfig(cfg),
		reportapp.WithAddress(s.address),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	s.app = app

	go func() {
		if err := app.Start(); err != nil {
			// the test fails when it tries to connect
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()

	return nil
}

// StopServer gracefully stops the report server
func (s *ServerTestHelper) StopServer() error {
	if s.app == nil {
		return nil
	}
	err := s.app.Stop(5 * time.Second)
	if shutdownErr := s.app.Components().Telemetry.Shutdown(context.Background()); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	return err
}

// RunSync runs one scheduler tick and waits for it
func (s *ServerTestHelper) RunSync() error {
	return s.app.Components().SyncCoordinator.RunOnce(s.ctx)
}

// WaitForServerReady waits for the server to be ready to accept requests
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// Post sends body as JSON to the API endpoint at path
func (s *ServerTestHelper) Post(path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return s.httpClient.Post(s.baseURL+"/api"+path, "application/json", bytes.NewReader(payload))
}

// Get sends a GET request to path
func (s *ServerTestHelper) Get(path string) (*http.Response, error) {
	return s.httpClient.Get(s.baseURL + path)
}

// WriteConfigYAML writes a configuration pointing the server at the fake
// remote API, with its store and exports inside dir
func WriteConfigYAML(dir, remoteURL string) string {
	configContent := fmt.Sprintf(`database:
  path: %s
remote:
  endpoint: %s
  publicEndpoint: %s
  timeout: 5s
sync:
  interval: 1h
export:
  dir: %s
  workers: 2
defaults:
  schedulerEnabled: true
  syncModeOnline: true
`, filepath.Join(dir, "db", "report.db"), remoteURL, remoteURL, ExportDir(dir))

	configPath := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(configPath, []byte(configContent), 0600)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return configPath
}

// ExportDir is where the server configured by WriteConfigYAML writes CSV files
func ExportDir(dir string) string {
	return filepath.Join(dir, "csv")
}
