package reporter

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/clearspring/metriccatcher/pkg/metrics"
)

const graphiteDialTimeout = 5 * time.Second

// Graphite writes snapshots to a carbon endpoint using the plaintext line
// protocol, one stat per line: "path value timestamp". A fresh connection is
// made per flush so a carbon restart never wedges the reporter.
type Graphite struct {
	addr   string
	prefix string
}

func NewGraphite(host string, port int, prefix string) *Graphite {
	return &Graphite{
		addr:   net.JoinHostPort(host, strconv.Itoa(port)),
		prefix: prefix,
	}
}

func (g *Graphite) Name() string { return "graphite" }

func (g *Graphite) Report(snapshots []metrics.NamedSnapshot) error {
	conn, err := net.DialTimeout("tcp", g.addr, graphiteDialTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to graphite at %s: %w", g.addr, err)
	}
	defer conn.Close()

	var buf bytes.Buffer

	now := time.Now().Unix()
	for _, snapshot := range snapshots {
		writeSnapshot(&buf, g.prefix, snapshot, now)
	}

	if _, err := conn.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write to graphite: %w", err)
	}

	return nil
}

func writeSnapshot(w io.Writer, prefix string, snapshot metrics.NamedSnapshot, ts int64) {
	base := metricPath(prefix, snapshot.Name)

	if snapshot.Value != nil {
		fmt.Fprintf(w, "%s.value %d %d\n", base, *snapshot.Value, ts)
	}

	if rates := snapshot.Rates; rates != nil {
		fmt.Fprintf(w, "%s.count %d %d\n", base, rates.Count, ts)
		fmt.Fprintf(w, "%s.mean_rate %.4f %d\n", base, rates.MeanRate, ts)
		fmt.Fprintf(w, "%s.rate_1m %.4f %d\n", base, rates.Rate1m, ts)
		fmt.Fprintf(w, "%s.rate_5m %.4f %d\n", base, rates.Rate5m, ts)
		fmt.Fprintf(w, "%s.rate_15m %.4f %d\n", base, rates.Rate15m, ts)
	}

	if dist := snapshot.Distribution; dist != nil {
		if snapshot.Rates == nil {
			fmt.Fprintf(w, "%s.count %d %d\n", base, dist.Count, ts)
		}

		fmt.Fprintf(w, "%s.min %d %d\n", base, dist.Min, ts)
		fmt.Fprintf(w, "%s.max %d %d\n", base, dist.Max, ts)
		fmt.Fprintf(w, "%s.mean %.4f %d\n", base, dist.Mean, ts)
		fmt.Fprintf(w, "%s.stddev %.4f %d\n", base, dist.StdDev, ts)
		fmt.Fprintf(w, "%s.p50 %.4f %d\n", base, dist.P50, ts)
		fmt.Fprintf(w, "%s.p75 %.4f %d\n", base, dist.P75, ts)
		fmt.Fprintf(w, "%s.p95 %.4f %d\n", base, dist.P95, ts)
		fmt.Fprintf(w, "%s.p99 %.4f %d\n", base, dist.P99, ts)
	}
}

// metricPath joins the non-empty name segments under the reporter prefix.
func metricPath(prefix string, name metrics.Name) string {
	parts := make([]string, 0, 4)

	if prefix != "" {
		parts = append(parts, prefix)
	}

	parts = append(parts, name.Group)

	if name.Category != "" {
		parts = append(parts, name.Category)
	}

	if name.ShortName != "" {
		parts = append(parts, name.ShortName)
	}

	return strings.Join(parts, ".")
}
