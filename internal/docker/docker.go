// Package docker lists containers and fetches their log tails by shelling out
// to the docker CLI. Output is treated as opaque text and JSON lines.
package docker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/five82/deckhand/internal/logtail"
	"github.com/five82/deckhand/internal/shell"
)

// ErrNotFound reports a container the daemon does not know about.
var ErrNotFound = errors.New("container not found")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultBin = "docker"

// createdLayout matches the CreatedAt column of docker ps.
const createdLayout = "2006-01-02 15:04:05 -0700 MST"

// Container is one row of docker ps.
type Container struct {
	ID        string
	Name      string
	Image     string
	State     string
	Status    string
	Ports     string
	CreatedAt time.Time
}

// Running reports whether the container is up.
func (c Container) Running() bool {
	return strings.EqualFold(c.State, "running")
}

// Lister is implemented by *Client and fakes in tests.
type Lister interface {
	ListContainers(ctx context.Context) ([]Container, error)
}

var (
	_ Lister          = (*Client)(nil)
	_ logtail.Fetcher = (*Client)(nil)
)

// Client runs docker commands.
type Client struct {
	bin    string
	runner shell.Runner
}

// NewClient builds a Client for the given docker binary. An empty bin uses
// "docker" from PATH; a nil runner executes on the host.
func NewClient(bin string, runner shell.Runner) *Client {
	if strings.TrimSpace(bin) == "" {
		bin = defaultBin
	}
	if runner == nil {
		runner = shell.Exec{}
	}
	return &Client{bin: bin, runner: runner}
}

// ListContainers returns every container, running or not, in the order
// docker reports them.
func (c *Client) ListContainers(ctx context.Context) ([]Container, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	res, err := c.runner.Run(ctx, c.bin, "ps", "-a", "--no-trunc", "--format", "{{json .}}")
	if err != nil {
		return nil, fmt.Errorf("docker ps: %w", err)
	}
	return parseContainers(res.Stdout)
}

// FetchTail returns the last lines of the container's stdout and stderr
// interleaved in the order they were written. The two streams arrive on
// separate pipes, so they are fetched with timestamps and merged on those.
// Bytes outside ASCII are left for the cleaning step to drop.
func (c *Client) FetchTail(ctx context.Context, container string, lines int) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	container = strings.TrimSpace(container)
	if container == "" {
		return "", fmt.Errorf("container required")
	}
	if lines <= 0 {
		lines = logtail.DefaultWindow
	}

	res, err := c.runner.Run(ctx, c.bin, "logs", "--timestamps", "--tail", strconv.Itoa(lines), container)
	if err != nil {
		if isNoSuchContainer(res.Stderr) || isNoSuchContainer([]byte(err.Error())) {
			return "", fmt.Errorf("docker logs %s: %w", container, ErrNotFound)
		}
		return "", fmt.Errorf("docker logs %s: %w", container, err)
	}
	return mergeStreams(res.Stdout, res.Stderr), nil
}

type psRow struct {
	ID        string `json:"ID"`
	Names     string `json:"Names"`
	Image     string `json:"Image"`
	State     string `json:"State"`
	Status    string `json:"Status"`
	Ports     string `json:"Ports"`
	CreatedAt string `json:"CreatedAt"`
}

func parseContainers(out []byte) ([]Container, error) {
	var containers []Container
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var row psRow
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("decode docker ps row: %w", err)
		}
		containers = append(containers, row.container())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan docker ps output: %w", err)
	}
	return containers, nil
}

func (r psRow) container() Container {
	c := Container{
		ID:     r.ID,
		Name:   primaryName(r.Names),
		Image:  r.Image,
		State:  r.State,
		Status: r.Status,
		Ports:  r.Ports,
	}
	if t, err := time.Parse(createdLayout, r.CreatedAt); err == nil {
		c.CreatedAt = t
	}
	return c
}

// primaryName picks the first of docker's comma separated names.
func primaryName(names string) string {
	name, _, _ := strings.Cut(names, ",")
	return strings.TrimPrefix(strings.TrimSpace(name), "/")
}

func isNoSuchContainer(msg []byte) bool {
	return bytes.Contains(bytes.ToLower(msg), []byte("no such container"))
}
