package status

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
	"github.com/vertextoedge/remote-pull-agent/internal/port"
)

// Config contains status service configuration
type Config struct {
	// RemoteStatusURL is the health endpoint of the remote agent.
	// Empty disables remote queries.
	RemoteStatusURL string

	// RemoteTimeout bounds each remote status request
	RemoteTimeout time.Duration
}

const maxRemoteBody = 4 << 10

// Service renders point-in-time disk and remote-agent status reports.
// Every report is measured fresh; nothing is cached.
type Service struct {
	config *Config
	fs     port.FileSystem
	client *http.Client
	logger *zap.Logger
}

// New creates a new status Service
func New(cfg *Config, fs port.FileSystem, logger *zap.Logger) *Service {
	timeout := cfg.RemoteTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		config: cfg,
		fs:     fs,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// DiskReport measures the destination volume and the root volume and
// renders both for a notification
func (s *Service) DiskReport() (string, error) {
	var sb strings.Builder
	sb.WriteString("💾 *Disk status*\n")

	dest := s.fs.DestDir()
	destInfo, err := s.fs.GetDiskUsage(dest)
	if err != nil {
		return "", fmt.Errorf("disk usage for %s: %w", dest, err)
	}
	sb.WriteString(renderVolume(dest, destInfo))

	if dest != "/" {
		rootInfo, err := s.fs.GetDiskUsage("/")
		if err != nil {
			// the destination report is still useful on its own
			s.logger.Warn("failed to measure root volume", zap.Error(err))
		} else if rootInfo.TotalBytes != destInfo.TotalBytes || rootInfo.FreeBytes != destInfo.FreeBytes {
			sb.WriteString(renderVolume("/", rootInfo))
		}
	}

	return sb.String(), nil
}

// RemoteStatus queries the remote agent's status endpoint and returns
// its response body
func (s *Service) RemoteStatus(ctx context.Context) (string, error) {
	if s.config.RemoteStatusURL == "" {
		return "", domain.NewConfigurationError("remote.status_url", "remote status endpoint is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.RemoteStatusURL, nil)
	if err != nil {
		return "", fmt.Errorf("build remote status request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("remote status request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBody))
	if err != nil {
		return "", fmt.Errorf("read remote status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("remote status returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		text = "(empty response)"
	}
	return fmt.Sprintf("📡 *Remote agent*\nStatus: 🟢 reachable\n%s", text), nil
}

// renderVolume formats one volume line with a usage traffic light
func renderVolume(path string, info *domain.DiskSpaceInfo) string {
	return fmt.Sprintf("%s `%s`\n├ Free: `%.2f GB` of `%.2f GB`\n└ Used: %.1f%%\n",
		usageIcon(info.UsedPercent()), path, info.FreeGB(), info.TotalGB(), info.UsedPercent())
}

func usageIcon(usedPercent float64) string {
	switch {
	case usedPercent >= 80:
		return "🔴"
	case usedPercent >= 50:
		return "🟠"
	default:
		return "🟢"
	}
}
