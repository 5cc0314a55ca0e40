package main

import (
	"log"
	"log/slog"

	chaincodeadapter "strawpoll/contexts/polling/poll-engine/adapters/chaincode"
	"strawpoll/contexts/polling/poll-engine/domain/entities"
	"strawpoll/internal/platform/config"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// Chaincode process entrypoint. The peer launches this binary and drives
// transactions through the contract API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load chaincode config failed: %v", err)
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "chaincode")

	contract := chaincodeadapter.NewPollContract(entities.Limits{
		MaxOptions:     cfg.PollMaxOptions,
		MaxLabelLength: cfg.PollMaxLabelLength,
	}, logger)

	cc, err := contractapi.NewChaincode(contract)
	if err != nil {
		log.Fatalf("create chaincode failed: %v", err)
	}
	cc.Info.Title = "StrawpollChaincode"
	cc.Info.Version = "1.0.0"
	if err := cc.Start(); err != nil {
		log.Fatalf("start chaincode failed: %v", err)
	}
}
