// seed carga datos de demostración: ítems, lotes con distintas fechas de producción
// y una orden DRAFT lista para confirmar.
//
// Uso: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/allocation-engine/internal/application/dto"
	"github.com/jhoicas/allocation-engine/internal/application/inventory"
	"github.com/jhoicas/allocation-engine/internal/domain"
	"github.com/jhoicas/allocation-engine/internal/domain/entity"
	"github.com/jhoicas/allocation-engine/internal/domain/repository"
	"github.com/jhoicas/allocation-engine/internal/infrastructure/postgres"
	"github.com/jhoicas/allocation-engine/pkg/config"
	"github.com/jhoicas/allocation-engine/pkg/logger"
)

type seedLot struct {
	code   string
	itemID string
	qty    string
	prod   string // YYYY-MM-DD, vacío = sin fecha
}

var (
	items = []entity.Item{
		{ID: "item-harina", Code: "MP-HARINA", Name: "Harina de trigo", Type: entity.ItemTypeRawMaterial},
		{ID: "item-galleta", Code: "PT-GALLETA", Name: "Galleta x12", Type: entity.ItemTypeFinishedGood},
	}
	lots = []seedLot{
		{"LOT-HAR-001", "item-harina", "120", "2026-01-10"},
		{"LOT-HAR-002", "item-harina", "80", "2026-02-03"},
		{"LOT-GAL-001", "item-galleta", "40", "2026-03-01"},
		{"LOT-GAL-002", "item-galleta", "25", ""},
	}
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("seed")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	txRunner := postgres.NewTxRunner(pool, cfg.Allocation.LockTimeout)
	ledger := inventory.NewRegisterMovementUseCase(txRunner, log, cfg.Allocation.MaxRetries, cfg.Allocation.RetryBaseDelay, nil)

	now := time.Now().UTC()
	for i := range items {
		it := items[i]
		it.CreatedAt = now
		err := txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
			return uow.Items().Create(ctx, &it)
		})
		if skip(err) {
			continue
		}
		if err != nil {
			log.Fatal().Err(err).Str("code", it.Code).Msg("crear ítem")
		}
		log.Info().Str("code", it.Code).Msg("ítem creado")
	}

	for _, l := range lots {
		req := dto.ReceiveLotRequest{
			LotCode:  l.code,
			ItemID:   l.itemID,
			Quantity: decimal.RequireFromString(l.qty),
			Location: "BOD-01",
			Ref:      "SEED",
		}
		if l.prod != "" {
			d, err := time.Parse(time.DateOnly, l.prod)
			if err != nil {
				log.Fatal().Err(err).Str("lot", l.code).Msg("fecha de producción")
			}
			req.ProductionDate = &d
		}
		if _, err := ledger.ReceiveLot(ctx, req); err != nil {
			if skip(err) {
				continue
			}
			log.Fatal().Err(err).Str("lot", l.code).Msg("recibir lote")
		}
	}

	order := &entity.Order{
		ID:        "order-demo-001",
		Reference: "SO-DEMO-001",
		Status:    entity.OrderDraft,
		CreatedAt: now,
		UpdatedAt: now,
		Lines: []entity.OrderLine{
			{LineNo: 1, ItemID: "item-galleta", Qty: decimal.NewFromInt(50), UOM: "CAJA"},
			{LineNo: 2, ItemID: "item-harina", Qty: decimal.NewFromInt(150), UOM: "KG"},
		},
	}
	err = txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		return uow.Orders().Create(ctx, order)
	})
	if err != nil && !skip(err) {
		log.Fatal().Err(err).Msg("crear orden")
	}
	log.Info().Str("order_id", order.ID).Str("reference", order.Reference).Msg("datos de demostración listos")
}

// skip trata los duplicados como ya sembrados.
func skip(err error) bool {
	return errors.Is(err, domain.ErrDuplicate)
}
