// Command bundlerd runs the UserOperation simulation/validation daemon: it dials an Ethereum node, wires
// the simulation pipeline to a live EntryPoint deployment, and serves eth_simulateUserOperation over
// JSON-RPC.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/entrypointlabs/uopguard/internal/config"
	"github.com/entrypointlabs/uopguard/internal/logger"
	"github.com/entrypointlabs/uopguard/internal/o11y"
	"github.com/entrypointlabs/uopguard/pkg/entities"
	"github.com/entrypointlabs/uopguard/pkg/entrypoint"
	"github.com/entrypointlabs/uopguard/pkg/jsonrpc"
	"github.com/entrypointlabs/uopguard/pkg/mempool"
	"github.com/entrypointlabs/uopguard/pkg/simulation"
	"github.com/entrypointlabs/uopguard/pkg/tracer"
)

func main() {
	root := &cobra.Command{
		Use:   "bundlerd",
		Short: "UserOperation simulation/validation daemon",
		Run: func(cmd *cobra.Command, args []string) {
			run(config.GetValues())
		},
	}

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

// traceParser adapts tracer.Parse to the simulation.TraceParser capability.
type traceParser struct{}

func (traceParser) Parse(raw *tracer.CollectorReturn) (*tracer.TraceFrame, error) {
	return tracer.Parse(raw)
}

func run(conf *config.Values) {
	logr := logger.NewZeroLogr().WithName("uopguard")

	db, err := badger.Open(badger.DefaultOptions(conf.DataDirectory))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	rpcClient, err := rpc.Dial(conf.EthClientUrl)
	if err != nil {
		log.Fatal(err)
	}
	eth := ethclient.NewClient(rpcClient)

	chainID, err := eth.ChainID(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	if o11y.IsEnabled(conf.OTELServiceName) {
		o11yOpts := &o11y.Opts{
			ServiceName:     conf.OTELServiceName,
			CollectorHeader: conf.OTELCollectorHeaders,
			CollectorUrl:    conf.OTELCollectorUrl,
			InsecureMode:    conf.OTELInsecureMode,

			ChainID: chainID,
			Address: conf.EntryPointAddress,
		}

		tracerCleanup := o11y.InitTracer(o11yOpts)
		defer tracerCleanup()

		metricsCleanup := o11y.InitMetrics(o11yOpts)
		defer metricsCleanup()
	}

	epClient := entrypoint.NewClient(rpcClient, conf.EntryPointAddress, conf.NativeBundlerTracer)
	mem := mempool.New(db)
	rep := entities.New(db, conf.ReputationConstants)

	pipeline := simulation.NewPipeline(
		epClient,
		epClient,
		mem,
		rep,
		traceParser{},
		simulation.PipelineConfig{
			EntryPointAddress: conf.EntryPointAddress,
			ChainID:           chainID,
		},
		logr,
	)

	gin.SetMode(conf.GinMode)
	r := gin.New()
	if err := r.SetTrustedProxies(nil); err != nil {
		log.Fatal(err)
	}
	if o11y.IsEnabled(conf.OTELServiceName) {
		r.Use(otelgin.Middleware(conf.OTELServiceName))
	}
	r.Use(
		cors.Default(),
		logger.WithLogr(logr),
		gin.Recovery(),
	)
	r.GET("/ping", func(g *gin.Context) {
		g.Status(http.StatusOK)
	})

	handlers := map[string]jsonrpc.Handler{
		"eth_simulateUserOperation": jsonrpc.NewSimulateUserOperationHandler(pipeline, mem),
	}
	r.POST("/", jsonrpc.Controller(handlers))
	r.POST("/rpc", jsonrpc.Controller(handlers))

	if err := r.Run(fmt.Sprintf(":%d", conf.Port)); err != nil {
		log.Fatal(err)
	}
}
