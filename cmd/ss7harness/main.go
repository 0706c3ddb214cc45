// Command ss7harness drives one ss7.Session against in-memory loopback
// links, the way allstar-nexus's main.go loads config with pflag/viper,
// builds a zap logger, and runs until a signal arrives. It is a
// demonstration/smoke-test harness: a real serial/TCP Device adapter is
// not implemented (see DESIGN.md); every configured link is served by one
// end of a fakedevice pair whose other end is left unattached, so the
// links send alignment frames but receive none and do not come into
// service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/creslin7/ss7stack/config"
	"github.com/creslin7/ss7stack/internal/fakedevice"
	"github.com/creslin7/ss7stack/internal/metrics"
	"github.com/creslin7/ss7stack/isup"
	"github.com/creslin7/ss7stack/ss7"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to ss7stack.yaml (default: search standard locations)")
	metricsAddr := pflag.String("metrics-addr", ":9107", "address to serve /metrics on")
	develLog := pflag.Bool("devel-log", false, "use zap's development logger instead of production")
	pflag.Parse()

	zapLog, err := buildZapLogger(*develLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ss7harness: logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()
	sugar := zapLog.Sugar()

	cfg, links, err := config.Load(*configPath)
	if err != nil {
		sugar.Errorf("config load: %v", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	go serveMetrics(*metricsAddr, reg, sugar)

	host := &consoleHost{log: sugar}
	sess, err := ss7.New(cfg, host, sugar)
	if err != nil {
		sugar.Errorf("session: %v", err)
		os.Exit(1)
	}
	sess.SetMetrics(m)

	if len(links) == 0 {
		sugar.Infof("no links configured, adding one loopback link for smoke-testing")
		links = []config.ResolvedLink{{Name: "loop0", AdjPC: 2}}
	}
	for _, lc := range links {
		dev, _ := fakedevice.Pair()
		if _, err := sess.AddLink(dev, lc.AdjPC); err != nil {
			sugar.Errorf("add link %s: %v", lc.Name, err)
			os.Exit(1)
		}
		sugar.Infof("attached link %q -> adjacent point code %d", lc.Name, lc.AdjPC)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runLoop(ctx, sess, sugar)
}

// runLoop drives the single-threaded poll/run/drain cycle per §4.5 until
// ctx is cancelled, ticking on a fixed interval since none of this
// harness's in-memory devices support blocking on real I/O readiness.
func runLoop(ctx context.Context, sess *ss7.Session, log *zap.SugaredLogger) {
	if err := sess.Start(time.Now()); err != nil {
		log.Errorf("start: %v", err)
		return
	}

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Infof("ss7harness: shutting down")
			return
		case now := <-ticker.C:
			if err := sess.Run(now); err != nil {
				log.Errorf("run: %v", err)
				continue
			}
			for {
				ev, ok := sess.CheckEvent()
				if !ok {
					break
				}
				log.Infof("event: %s id=%s", ev.Kind, ev.ID)
			}
		}
	}
}

func buildZapLogger(devel bool) (*zap.Logger, error) {
	if devel {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func serveMetrics(addr string, reg *prometheus.Registry, log *zap.SugaredLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Infof("serving metrics on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("metrics server: %v", err)
	}
}

// consoleHost is the ss7.HostCallbacks implementation this harness uses:
// every callback just logs. A real host would route Hangup to its own
// call-state table and NotInService/CallNull to cleanup.
type consoleHost struct {
	log *zap.SugaredLogger
}

func (h *consoleHost) Hangup(cic uint16, dpc uint32, cause int) (isup.HangupResult, isup.HangupAction) {
	h.log.Infof("hangup cic=%d dpc=%d cause=%d", cic, dpc, cause)
	return isup.CICIdle, isup.HangupFreeCall
}

func (h *consoleHost) NotInService(cic uint16, dpc uint32) {
	h.log.Infof("cic=%d dpc=%d not in service", cic, dpc)
}

func (h *consoleHost) CallNull(cic uint16, dpc uint32) {
	h.log.Infof("cic=%d dpc=%d call freed", cic, dpc)
}

func (h *consoleHost) Message(msg string) { h.log.Info(msg) }
func (h *consoleHost) Error(err error)    { h.log.Error(err) }
