// Package metrics собирает метрики Prometheus для панели продаж и воркеров уведомлений.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Значения метки result у notifications_sent_total.
const (
	ResultSent   = "sent"
	ResultFailed = "failed"
)

// Collector хранит метрики сервиса.
type Collector struct {
	salesCreated      prometheus.Counter
	productsCreated   prometheus.Counter
	excludedRecords   prometheus.Counter
	expiringSoon      prometheus.Gauge
	noticesPublished  prometheus.Counter
	notificationsSent *prometheus.CounterVec
}

// NewCollector создаёт Collector и регистрирует метрики в reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		salesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sales_created_total",
			Help: "Количество записанных продаж",
		}),
		productsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "products_created_total",
			Help: "Количество добавленных товаров каталога",
		}),
		excludedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expiry_excluded_records_total",
			Help: "Продажи, для которых не удалось определить дату окончания",
		}),
		expiringSoon: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "expiry_expiring_soon",
			Help: "Подписки в окне «скоро истекает» при последнем отборе",
		}),
		noticesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Уведомления, опубликованные в очередь",
		}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Письма-напоминания по результату отправки",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.salesCreated,
		c.productsCreated,
		c.excludedRecords,
		c.expiringSoon,
		c.noticesPublished,
		c.notificationsSent,
	)
	return c
}

// RecordSaleCreated учитывает новую продажу.
func (c *Collector) RecordSaleCreated() {
	c.salesCreated.Inc()
}

// RecordProductCreated учитывает новый товар.
func (c *Collector) RecordProductCreated() {
	c.productsCreated.Inc()
}

// RecordSelection сохраняет итог отбора: размер окна и число пропущенных записей.
func (c *Collector) RecordSelection(selected, excluded int) {
	c.expiringSoon.Set(float64(selected))
	c.excludedRecords.Add(float64(excluded))
}

// RecordNoticePublished учитывает опубликованное уведомление.
func (c *Collector) RecordNoticePublished() {
	c.noticesPublished.Inc()
}

// RecordNotificationSent учитывает попытку отправки письма.
func (c *Collector) RecordNotificationSent(err error) {
	result := ResultSent
	if err != nil {
		result = ResultFailed
	}
	c.notificationsSent.WithLabelValues(result).Inc()
}

// Handler отдаёт метрики для скрейпа.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NewRegistry возвращает реестр со стандартными метриками процесса и рантайма Go.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewServer возвращает HTTP-сервер, отдающий только /metrics.
// Используется фоновыми процессами без собственного API.
func NewServer(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
