package media

import (
	"context"
	"fmt"
	"log"
	"net"
	"path"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"telegram-sync/internal/config"
)

const sftpDialTimeout = 30 * time.Second

// SFTPMirror uploads binaries to an SFTP server under year/month
// partitioned directories and exposes them through a public base URL.
// Each upload opens its own session; the session is closed on every exit
// path, and close failures are logged without masking the upload result.
type SFTPMirror struct {
	host          string
	port          int
	user          string
	password      string
	basePath      string
	publicBaseURL string

	now func() time.Time
}

// NewSFTPMirror creates a mirror from config. It does not dial; an
// incomplete configuration surfaces as an upload error, which callers
// treat as a non-fatal mirror failure.
func NewSFTPMirror(cfg *config.Config) *SFTPMirror {
	return &SFTPMirror{
		host:          cfg.SFTPHost,
		port:          cfg.SFTPPort,
		user:          cfg.SFTPUser,
		password:      cfg.SFTPPassword,
		basePath:      cfg.SFTPBasePath,
		publicBaseURL: cfg.PublicUploadBaseURL,
		now:           time.Now,
	}
}

// Upload stores data as <basePath>/<YYYY>/<MM>/<fileName> and returns the
// matching public URL.
func (m *SFTPMirror) Upload(ctx context.Context, data []byte, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.host == "" || m.publicBaseURL == "" {
		return "", fmt.Errorf("sftp mirror is not configured")
	}

	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	sshConn, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            m.user,
		Auth:            []ssh.AuthMethod{ssh.Password(m.password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         sftpDialTimeout,
	})
	if err != nil {
		return "", fmt.Errorf("failed to connect to sftp host: %w", err)
	}
	defer func() {
		if closeErr := sshConn.Close(); closeErr != nil {
			log.Printf("Error closing SFTP connection: %v", closeErr)
		}
	}()

	client, err := sftp.NewClient(sshConn)
	if err != nil {
		return "", fmt.Errorf("failed to open sftp session: %w", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			log.Printf("Error closing SFTP session: %v", closeErr)
		}
	}()

	now := m.now()
	year := strconv.Itoa(now.Year())
	month := fmt.Sprintf("%02d", int(now.Month()))

	remoteDir := path.Join(m.basePath, year, month)
	// MkdirAll treats already-existing directories as success.
	if err := client.MkdirAll(remoteDir); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", remoteDir, err)
	}

	remotePath := path.Join(remoteDir, fileName)
	f, err := client.Create(remotePath)
	if err != nil {
		return "", fmt.Errorf("failed to create remote file %s: %w", remotePath, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write remote file %s: %w", remotePath, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close remote file %s: %w", remotePath, err)
	}

	return fmt.Sprintf("%s/%s/%s/%s", m.publicBaseURL, year, month, fileName), nil
}
