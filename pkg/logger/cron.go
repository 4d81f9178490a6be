package logger

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CronLogger адаптирует zerolog к интерфейсу cron.Logger,
// чтобы планировщик писал в общий JSON лог.
type CronLogger struct{}

var _ cron.Logger = CronLogger{}

func (CronLogger) Info(msg string, keysAndValues ...interface{}) {
	withPairs(Debug().Str("component", "cron"), keysAndValues).Msg(msg)
}

func (CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	withPairs(Error().Err(err).Str("component", "cron"), keysAndValues).Msg(msg)
}

func withPairs(event *zerolog.Event, keysAndValues []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		event = event.Interface(key, keysAndValues[i+1])
	}
	return event
}
