package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/yungbote/sharedexperiences-backend/internal/app"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/envutil"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

func main() {
	var k int
	flag.IntVar(&k, "k", 0, "number of clusters (defaults to CLUSTER_K)")
	flag.Parse()

	_ = godotenv.Load()

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	application, err := app.New(ctx, log)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	if k <= 0 {
		k = application.Cfg.Engine.ClusterK
	}
	res, err := application.Usecases.Engine.Recluster(ctx, k)
	if err != nil {
		fmt.Printf("recluster: %v\n", err)
		os.Exit(1)
	}
	if !res.Replaced {
		fmt.Printf("not enough embedded posts for k=%d; stored clusters unchanged\n", k)
		return
	}
	for _, c := range res.Clusters {
		fmt.Printf("%s\t%d\t%s\n", c.ID, c.Size, c.Label)
	}
	fmt.Printf("stored %d clusters\n", len(res.Clusters))
}
