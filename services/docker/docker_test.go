package docker

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/moby/moby/api/types/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezenkico/deploy-commander/stagehand/models"
)

func frame(stream byte, payload string) []byte {
	header := make([]byte, 8)
	header[0] = stream
	binary.BigEndian.PutUint32(header[4:], uint32(len(payload)))
	return append(header, payload...)
}

func TestDemuxLogs(t *testing.T) {
	var src bytes.Buffer
	src.Write(frame(1, "hello\n"))
	src.Write(frame(2, "oops\n"))
	src.Write(frame(1, ""))
	src.Write(frame(3, "odd\n"))

	var stdout, stderr bytes.Buffer
	require.NoError(t, demuxLogs(&stdout, &stderr, &src))

	assert.Equal(t, "hello\nodd\n", stdout.String())
	assert.Equal(t, "oops\n", stderr.String())
}

func TestDemuxLogs_TruncatedPayload(t *testing.T) {
	data := frame(1, "complete")
	src := bytes.NewReader(data[:len(data)-3])

	var stdout, stderr bytes.Buffer
	assert.Error(t, demuxLogs(&stdout, &stderr, src))
}

func TestPortBindings(t *testing.T) {
	exposed, portMap, err := portBindings(map[int]int{5432: 15432, 9000: 0})
	require.NoError(t, err)

	pg, _ := network.PortFrom(5432, network.IPProtocol("tcp"))
	minio, _ := network.PortFrom(9000, network.IPProtocol("tcp"))

	assert.Len(t, exposed, 2)
	assert.Contains(t, exposed, pg)
	assert.Contains(t, exposed, minio)

	require.Len(t, portMap[pg], 1)
	assert.Equal(t, "15432", portMap[pg][0].HostPort)
	assert.Equal(t, "0.0.0.0", portMap[pg][0].HostIP.String())
	assert.NotContains(t, portMap, minio)
}

func TestPortBindings_InvalidPort(t *testing.T) {
	_, _, err := portBindings(map[int]int{70000: 80})
	assert.Error(t, err)
}

func TestContainerLabels(t *testing.T) {
	labels := containerLabels(models.ContainerSpec{
		Service: "db",
		Network: "stagehand-network",
		Labels: map[string]string{
			models.LabelRun:     "run-1",
			models.LabelService: "overridden",
		},
	})

	assert.Equal(t, map[string]string{
		models.LabelRun:     "run-1",
		models.LabelService: "db",
		models.LabelNetwork: "stagehand-network",
	}, labels)
}
