// Package log provides structured logging for trackd, built on zerolog.
// Components take child loggers via WithComponent so every line carries
// its origin.
package log
