package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"
)

// Generator produces the deterministic per-machine identifier a license is
// bound to. The value is computed once per process and memoized; repeated
// calls return the same fingerprint without touching the platform again.
//
// Identifier sources, concatenated in fixed order before hashing:
// platform name, host id (machine-id / IOPlatformUUID / MachineGuid), and the
// primary non-loopback MAC address. IP addresses are deliberately never used.
type Generator struct {
	fallbackPath string
	logger       *zap.SugaredLogger

	// collectors is overridable in tests
	collectors []func() (string, bool)

	once     sync.Once
	value    string
	err      error
	degraded bool
}

// New creates a fingerprint generator. fallbackPath is where a random install
// id is persisted when no stable hardware identifier is available.
func New(fallbackPath string, logger *zap.SugaredLogger) *Generator {
	g := &Generator{
		fallbackPath: fallbackPath,
		logger:       logger,
	}
	g.collectors = []func() (string, bool){
		platformID,
		hostID,
		primaryMAC,
	}

	return g
}

// Generate returns the machine fingerprint as a hex-encoded SHA-256 digest.
// No network calls, no randomness on the happy path.
func (g *Generator) Generate() (string, error) {
	g.once.Do(g.compute)
	return g.value, g.err
}

// Degraded reports whether the fingerprint was derived from the persisted
// fallback id rather than stable hardware identifiers.
func (g *Generator) Degraded() bool {
	g.once.Do(g.compute)
	return g.degraded
}

func (g *Generator) compute() {
	var parts []string

	for _, collect := range g.collectors {
		if id, ok := collect(); ok {
			parts = append(parts, id)
		}
	}

	if len(parts) == 0 {
		id, err := g.installID()
		if err != nil {
			g.err = err
			return
		}

		g.degraded = true
		g.logger.Warnw("no stable machine identifier available, falling back to persisted install id",
			"path", g.fallbackPath)

		parts = []string{"install:" + id}
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	g.value = hex.EncodeToString(sum[:])
}

// installID reads the persisted random id, creating it on first use. This
// locks the license to "this install" rather than "this machine", which is
// weaker but still bounded.
func (g *Generator) installID() (string, error) {
	if data, err := os.ReadFile(g.fallbackPath); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}

	id := uuid.NewString()

	if err := os.MkdirAll(filepath.Dir(g.fallbackPath), 0o755); err != nil {
		return "", err
	}

	if err := os.WriteFile(g.fallbackPath, []byte(id+"\n"), 0o600); err != nil {
		return "", err
	}

	return id, nil
}

func platformID() (string, bool) {
	info, err := host.Info()
	if err != nil || info.Platform == "" {
		return "", false
	}

	return "platform:" + info.Platform, true
}

func hostID() (string, bool) {
	id, err := host.HostID()
	if err != nil || id == "" {
		return "", false
	}

	return "host:" + id, true
}

// primaryMAC returns the hardware address of the first physical-looking
// interface. Loopback and down interfaces are skipped.
func primaryMAC() (string, bool) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", false
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		if len(iface.HardwareAddr) == 0 {
			continue
		}

		return "mac:" + iface.HardwareAddr.String(), true
	}

	return "", false
}
