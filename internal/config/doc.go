// Package config loads relay hub configuration from environment variables.
//
// The hub has no configuration file: every setting in the table below is an
// environment variable, bound through Viper's AutomaticEnv support with
// explicit defaults and env-name bindings per key.
//
// Recognized keys:
//
//	PORT                    listener port                    (default 8000)
//	MAX_RECONNECT_ATTEMPTS  reconnect attempt count           (default 5)
//	RECONNECT_INTERVAL      reconnect interval, sec           (default 2)
//	LOG_LEVEL               logrus level                      (default INFO)
//	DEBUG_MODE              debug flag                        (default false)
//	CONNECTION_TIMEOUT      heartbeat deadline, seconds        (default 30)
//	PING_INTERVAL           heartbeat period, seconds          (default 20)
//	TELEMETRY_BUFFER_SIZE   per-device ring capacity           (default 100)
//
// MAX_RECONNECT_ATTEMPTS, RECONNECT_INTERVAL and DEBUG_MODE are loaded into
// Config, but no component reads them: the hub sends no reconnect guidance
// to peers and DEBUG_MODE adds no envelope tracing.
package config
