// Команда phone_fsm запускает автомат жизненного цикла звонка.
//
// Источник событий выбирается флагом -source: synthetic — генератор на
// таймере (по умолчанию), sip — реальная SIP сигнализация через UAS.
// Процесс останавливается по SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arzzra/phone_fsm/pkg/callfsm"
	"github.com/arzzra/phone_fsm/pkg/eventgen"
	"github.com/arzzra/phone_fsm/pkg/sipsource"
)

func main() {
	var (
		source        = flag.String("source", "synthetic", "Источник событий: synthetic, sip")
		interval      = flag.Duration("interval", eventgen.DefaultInterval, "Интервал синтетического генератора")
		sipListen     = flag.String("sip-listen", "127.0.0.1:5060", "Адрес UDP транспорта SIP источника")
		answerAfter   = flag.Duration("answer-after", 2*time.Second, "Задержка автоответа SIP источника, 0 — без автоответа")
		metricsListen = flag.String("metrics-listen", "", "Адрес HTTP /metrics, пусто — выключено")
		debug         = flag.Bool("debug", false, "Подробное логирование")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := callfsm.NewMetrics(callfsm.DefaultMetricsConfig())

	machine, err := callfsm.NewMachine(
		callfsm.WithLogger(log),
		callfsm.WithMetrics(metrics),
	)
	if err != nil {
		log.Error("создание автомата", "error", err)
		os.Exit(1)
	}

	if *metricsListen != "" {
		go serveMetrics(ctx, log, *metricsListen)
	}

	var src callfsm.Source
	switch *source {
	case "synthetic":
		gen := eventgen.New(*interval,
			eventgen.WithLogger(log),
			eventgen.WithMetrics(metrics),
		)
		gen.Start(ctx)
		src = gen

	case "sip":
		cfg := sipsource.DefaultConfig()
		cfg.ListenAddr = *sipListen
		cfg.AnswerAfter = *answerAfter

		sip, err := sipsource.New(cfg,
			sipsource.WithLogger(log),
			sipsource.WithMetrics(metrics),
		)
		if err != nil {
			log.Error("создание SIP источника", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := sip.Close(); err != nil {
				log.Warn("закрытие SIP источника", "error", err)
			}
		}()

		go func() {
			if err := sip.Listen(ctx); err != nil && ctx.Err() == nil {
				log.Error("SIP транспорт завершился", "error", err)
				stop()
			}
		}()
		src = sip

	default:
		log.Error("неизвестный источник событий", "source", *source)
		os.Exit(1)
	}

	if err := machine.Run(ctx, src); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("цикл обработки завершился с ошибкой", "error", err)
		os.Exit(1)
	}

	log.Info("остановлено",
		"processed", metrics.TotalProcessed(),
		"rejected", metrics.TotalRejected(),
		"notifications_dropped", metrics.TotalNotifyDropped(),
	)
}

// serveMetrics поднимает HTTP endpoint /metrics и гасит его при
// отмене контекста.
func serveMetrics(ctx context.Context, log *slog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("metrics endpoint запущен", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics endpoint завершился", "error", err)
	}
}
