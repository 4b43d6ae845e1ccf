// Package activitysink ships accounts.ActivitySink implementations that
// export account activity as Prometheus counters or Kafka messages.
package activitysink
