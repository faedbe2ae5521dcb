package license

import (
	"crypto/md5"
	"fmt"
	"net"
	"os"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"

	"fastfood/internal/models"
)

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// HostInfo reports the hostname and primary IP address of this server
type HostInfo func() (hostname, ip string)

// Identity resolves the server identity licenses are bound to. Every client
// of one server shares it.
type Identity struct {
	db       *gorm.DB
	serverID string
	host     HostInfo
	logger   *zap.Logger

	mu     sync.Mutex
	cached string
}

// NewIdentity creates an identity provider. A non-empty serverID is used as is.
func NewIdentity(db *gorm.DB, serverID string, host HostInfo, logger *zap.Logger) *Identity {
	if host == nil {
		host = LocalHost
	}
	return &Identity{db: db, serverID: serverID, host: host, logger: logger}
}

// MachineID returns the configured id, else the id persisted by an earlier
// activation, else one derived from hostname and IP. The result is cached.
func (i *Identity) MachineID() (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.cached != "" {
		return i.cached, nil
	}
	if i.serverID != "" {
		i.cached = i.serverID
		return i.cached, nil
	}

	var activation models.SystemActivation
	err := i.db.Where("machine_id <> ''").Order("id").First(&activation).Error
	switch {
	case err == nil:
		i.cached = activation.MachineID
		i.logger.Debug("using persisted server id", zap.String("machine_id", i.cached))
		return i.cached, nil
	case !gorm.IsRecordNotFoundError(err):
		return "", fmt.Errorf("failed to load system activation: %w", err)
	}

	hostname, ip := i.host()
	i.cached = DeriveMachineID(hostname, ip)
	i.logger.Info("derived server id",
		zap.String("machine_id", i.cached), zap.String("hostname", hostname), zap.String("ip", ip))
	return i.cached, nil
}

// DeriveMachineID builds a name-based (version 3) UUID from the
// alphanumeric characters of hostname and ip.
func DeriveMachineID(hostname, ip string) string {
	sum := md5.Sum([]byte(nonAlnum.ReplaceAllString(hostname+ip, "")))
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	return uuid.UUID(sum).String()
}

// LocalHost reads the hostname and the first non-loopback IPv4 address
func LocalHost() (string, string) {
	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		if h, err := os.Hostname(); err == nil {
			hostname = h
		} else {
			hostname = "unknown-host"
		}
	}

	ip := "unknown-ip"
	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok || ipNet.IP.IsLoopback() {
				continue
			}
			if v4 := ipNet.IP.To4(); v4 != nil {
				ip = v4.String()
				break
			}
		}
	}
	return hostname, ip
}
