package main

import (
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeReturnsListenError(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	quit := make(chan os.Signal, 1)

	done := make(chan error, 1)
	go func() { done <- serve(app, occupied.Addr().String(), quit) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), occupied.Addr().String())
	case <-time.After(5 * time.Second):
		t.Fatal("serve kept running after listen failed")
	}
}

func TestServeShutsDownOnSignal(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	quit := make(chan os.Signal, 1)

	done := make(chan error, 1)
	go func() { done <- serve(app, "127.0.0.1:0", quit) }()

	// Give Listen a moment to bind before asking for shutdown.
	time.Sleep(100 * time.Millisecond)
	quit <- syscall.SIGTERM

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after shutdown signal")
	}
}
