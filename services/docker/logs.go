package docker

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/moby/moby/client"
)

// ServiceLogs writes the last tail lines of every container of service on
// networkName to stdout and stderr.
func (r *DockerRuntime) ServiceLogs(ctx context.Context, service string, networkName string, tail int, stdout, stderr io.Writer) error {
	containers, err := r.ListContainers(ctx, service, networkName)
	if err != nil {
		return err
	}

	for _, c := range containers {
		opts := client.ContainerLogsOptions{
			ShowStdout: true,
			ShowStderr: true,
		}
		if tail > 0 {
			opts.Tail = strconv.Itoa(tail)
		}

		rc, err := r.client.ContainerLogs(ctx, c.ID, opts)
		if err != nil {
			return fmt.Errorf("logs of container %q: %w", c.Name, err)
		}
		err = demuxLogs(stdout, stderr, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("logs of container %q: %w", c.Name, err)
		}
	}
	return nil
}

// demuxLogs splits the multiplexed stream of a non-tty container into
// stdout and stderr.
func demuxLogs(dstOut, dstErr io.Writer, src io.Reader) error {
	r := bufio.NewReader(src)

	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			// Clean EOF: stream ends
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return err
		}

		streamType := header[0] // 1=stdout, 2=stderr
		size := binary.BigEndian.Uint32(header[4:8])
		if size == 0 {
			continue
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return err
		}

		w := dstOut
		if streamType == 2 {
			w = dstErr
		}
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("write log payload: %w", err)
		}
	}
}
