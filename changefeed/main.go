package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/financeai/backoffice/gateway"
	"github.com/financeai/backoffice/shared/config"
	"github.com/financeai/backoffice/shared/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	redisAddr, err := config.MustGetEnv("REDIS_ADDR")
	if err != nil {
		log.Fatal(err)
	}
	broker, err := config.MustGetEnv("KAFKA_BROKER")
	if err != nil {
		log.Fatal(err)
	}

	if err := utils.InitRedis(redisAddr); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer utils.CloseRedis()

	feed := gateway.NewRedisFeed(utils.GetRedisClient())
	consumer := NewChangeFeedConsumer(broker, feed)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer.Run(ctx)
	logrus.Info("changefeed consumer stopped")
}
