// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

package source

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// fetchSFTP opens a dataset on a remote SFTP server. The URL takes the form
// sftp://user@host[:port]/path/to/file.ttl. Host keys must already be
// trusted via 'graphseed trust-host'.
func (f *Fetcher) fetchSFTP(ctx context.Context, rawURL string) (io.ReadCloser, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid sftp source %s: %w", rawURL, err)
	}
	if u.User == nil || u.User.Username() == "" {
		return nil, "", fmt.Errorf("sftp source %s: user is required (sftp://user@host/path)", rawURL)
	}

	conn, err := f.dialSSH(ctx, u.Host, u.User.Username())
	if err != nil {
		return nil, "", err
	}

	sftpClient, err := sftp.NewClient(conn)
	if err != nil {
		_ = conn.Close()
		return nil, "", fmt.Errorf("failed to create sftp client: %w", err)
	}

	file, err := sftpClient.Open(u.Path)
	if err != nil {
		_ = sftpClient.Close()
		_ = conn.Close()
		return nil, "", fmt.Errorf("failed to open remote file %s: %w", u.Path, err)
	}

	return &sftpPayload{file: file, sftp: sftpClient, conn: conn}, u.Path, nil
}

// sftpPayload bundles the remote file with its connection so closing the
// payload tears everything down.
type sftpPayload struct {
	file *sftp.File
	sftp *sftp.Client
	conn *ssh.Client
}

func (s *sftpPayload) Read(p []byte) (int, error) { return s.file.Read(p) }

func (s *sftpPayload) Close() error {
	err := s.file.Close()
	_ = s.sftp.Close()
	_ = s.conn.Close()
	return err
}

// dialSSH connects to an SSH server, trying a configured private key first
// and a running SSH agent as fallback.
func (f *Fetcher) dialSSH(ctx context.Context, host, user string) (*ssh.Client, error) {
	hostKeyCallback := f.hostKeyCallback()

	// Add port 22 if not specified.
	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, "22")
	}

	var finalErr error

	// --- Attempt 1: use the configured private key exclusively ---
	if f.SSHKeyPath != "" {
		keyData, err := os.ReadFile(f.SSHKeyPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read private key %s: %w", f.SSHKeyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			return nil, fmt.Errorf("unable to parse private key: %w", err)
		}

		config := &ssh.ClientConfig{
			User:            user,
			Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
			HostKeyCallback: hostKeyCallback,
			Timeout:         10 * time.Second,
		}
		client, err := dialContext(ctx, addr, config)
		if err == nil {
			return client, nil
		}
		// If the error was not an auth failure, fail fast.
		if !strings.Contains(err.Error(), "unable to authenticate") {
			return nil, fmt.Errorf("connection with configured key failed: %w", err)
		}
		finalErr = err
	}

	// --- Attempt 2: use the SSH agent as a fallback ---
	agentClient := getSSHAgent()
	if agentClient == nil {
		if finalErr != nil {
			return nil, fmt.Errorf("key authentication failed, and no SSH agent available for fallback: %w", finalErr)
		}
		return nil, fmt.Errorf("no authentication method available (no key configured and no ssh agent found)")
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeysCallback(agentClient.Signers)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         10 * time.Second,
	}
	client, err := dialContext(ctx, addr, config)
	if err != nil {
		return nil, fmt.Errorf("connection with ssh agent failed: %w", err)
	}
	return client, nil
}

// dialContext performs an SSH handshake over a context-aware TCP dial.
func dialContext(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	dialer := net.Dialer{Timeout: config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// hostKeyCallback validates presented host keys against the trusted keys in
// the ledger.
func (f *Fetcher) hostKeyCallback() ssh.HostKeyCallback {
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		// The hostname passed to the callback can include the port. Strip it
		// so the lookup matches what trust-host stored.
		host, _, err := net.SplitHostPort(hostname)
		if err != nil {
			host = hostname
		}

		presentedKey := string(ssh.MarshalAuthorizedKey(key))

		if f.hostKeys == nil {
			return fmt.Errorf("no known_hosts store configured; cannot verify host key for %s", host)
		}
		knownKey, err := f.hostKeys.GetKnownHostKey(host)
		if err != nil {
			return fmt.Errorf("failed to query known_hosts ledger: %w", err)
		}
		if knownKey == "" {
			return fmt.Errorf("unknown host key for %s. run 'graphseed trust-host' to add it", host)
		}
		if knownKey != presentedKey {
			return fmt.Errorf("!!! HOST KEY MISMATCH FOR %s !!!\nRemote key presented: %s\nThis could be a man-in-the-middle attack", host, presentedKey)
		}
		return nil
	}
}

// GetRemoteHostKey connects to a host just to retrieve its public key, for
// the trust-host command.
func GetRemoteHostKey(host string) (ssh.PublicKey, error) {
	keyChan := make(chan ssh.PublicKey, 1)

	config := &ssh.ClientConfig{
		// No authentication needed, just start the handshake.
		User: "graphseed-probe",
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			keyChan <- key
			// Return a specific error to gracefully stop the handshake.
			return fmt.Errorf("graphseed: successfully retrieved host key")
		},
		Timeout: 5 * time.Second,
	}

	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, "22")
	}

	// The dial is expected to fail with the sentinel error above.
	_, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		if strings.Contains(err.Error(), "graphseed: successfully retrieved host key") {
			return <-keyChan, nil
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", host, err)
	}

	return nil, fmt.Errorf("ssh.Dial succeeded unexpectedly, could not retrieve key")
}
