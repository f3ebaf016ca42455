package session

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Handler consumes the output part of a response.
type Handler func(output string) error

type route struct {
	prefix string
	domain Domain
	fn     Handler
}

// Demux routes "<command>\n<output>" responses to handlers by command prefix.
type Demux struct {
	routes []route
	log    *slog.Logger
}

// NewDemux returns an empty router.
func NewDemux(log *slog.Logger) *Demux {
	return &Demux{log: log}
}

// Handle registers fn for responses whose command starts with prefix. Longer
// prefixes are tried first.
func (d *Demux) Handle(prefix string, domain Domain, fn Handler) {
	d.routes = append(d.routes, route{prefix: prefix, domain: domain, fn: fn})
	sort.SliceStable(d.routes, func(i, j int) bool {
		return len(d.routes[i].prefix) > len(d.routes[j].prefix)
	})
}

// SplitResponse splits a response into its command line and output.
func SplitResponse(msg string) (cmd, output string) {
	if p := strings.IndexByte(msg, '\n'); p >= 0 {
		return msg[:p], msg[p+1:]
	}
	return msg, ""
}

// Dispatch runs the handler matching msg. It reports the handled domain and
// whether the handler succeeded; unmatched responses and failing handlers are
// logged and leave every snapshot untouched.
func (d *Demux) Dispatch(msg string) (Domain, bool) {
	cmd, output := SplitResponse(msg)
	for _, r := range d.routes {
		if !strings.HasPrefix(cmd, r.prefix) {
			continue
		}
		if err := d.call(r, output); err != nil {
			d.log.Error("handle response", "cmd", cmd, "domain", r.domain, "err", err)
			return r.domain, false
		}
		return r.domain, true
	}
	d.log.Debug("unrouted response", "cmd", cmd)
	return "", false
}

func (d *Demux) call(r route, output string) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("panic: %v", e)
		}
	}()
	return r.fn(output)
}
