package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP Метрики (общие для всех сервисов)
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Labels: service, method, path, status
// Пример запроса PromQL: rate(http_requests_total{service="orders-service"}[5m])
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
// Пример: histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Database Метрики
// =============================================================================

// DbQueryDuration - время выполнения SQL запросов
var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "table"},
)

// DbErrors - счётчик ошибок базы данных
var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis Метрики
// =============================================================================

// RedisCacheHits - попадания в кеш
var RedisCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"service", "key_prefix"},
)

// RedisCacheMisses - промахи кеша
var RedisCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"service", "key_prefix"},
)

// RedisOperationDuration - время операций Redis
var RedisOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	},
	[]string{"service", "operation"},
)

// RedisErrors - ошибки Redis
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka Метрики
// =============================================================================

var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

var KafkaMessagesConsumed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_consumed_total",
		Help: "Total number of Kafka messages consumed",
	},
	[]string{"service", "topic", "group"},
)

var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

var KafkaConsumeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_consume_duration_seconds",
		Help:    "Duration of Kafka message processing",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	},
	[]string{"service", "topic"},
)

// KafkaErrors - ошибки Kafka, operation: produce, consume, commit
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"},
)

// =============================================================================
// Business Метрики
// =============================================================================

// --- Orders Service: резервирование остатков ---

// CheckoutAttempts - итог каждого вызова оформления заказа
// outcome: success, validation_failed, conflict_exhausted, unavailable, error
var CheckoutAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Total number of checkout requests by outcome",
	},
	[]string{"outcome"},
)

// CheckoutRetries - повторы транзакции резервирования
// reason: conflict (проиграли гонку за остаток), busy (временная ошибка БД)
var CheckoutRetries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "checkout_retries_total",
		Help: "Total number of reservation attempt retries",
	},
	[]string{"reason"},
)

// CheckoutDuration - полное время оформления, включая повторы
var CheckoutDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout including retries",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	},
)

var OrdersCreated = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	},
)

// OrdersTotal - общая сумма заказов
var OrdersTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "orders_total_amount",
		Help: "Total amount of all orders",
	},
)

// OrderStatusChanges - смены статуса заказа по целевому статусу
var OrderStatusChanges = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "order_status_changes_total",
		Help: "Total number of order status changes by target status",
	},
	[]string{"status"},
)

// StockUnitsRestored - единицы товара, возвращенные на склад при отмене
var StockUnitsRestored = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "stock_units_restored_total",
		Help: "Total number of stock units returned by cancellations",
	},
)

// --- Catalog Service ---

// CatalogQueries - запросы списка товаров, mode: public, admin
var CatalogQueries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_queries_total",
		Help: "Total number of catalog listing queries",
	},
	[]string{"mode"},
)

// CatalogCacheInvalidations - сброс кеша фильтров каталога
var CatalogCacheInvalidations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_cache_invalidations_total",
		Help: "Total number of catalog cache invalidations",
	},
	[]string{"reason"},
)

// CatalogLowStockVariants - активные варианты с остатком ниже порога
var CatalogLowStockVariants = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "catalog_low_stock_variants",
		Help: "Number of active variants at or below the low stock threshold",
	},
)

// --- Background Worker ---

// WorkerEventsProcessed - обработанные события заказов
var WorkerEventsProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worker_events_processed_total",
		Help: "Total number of order events processed by worker",
	},
	[]string{"event_type", "status"},
)

// WorkerJobRuns - запуски cron задач
var WorkerJobRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worker_job_runs_total",
		Help: "Total number of scheduled job runs",
	},
	[]string{"job", "status"},
)
