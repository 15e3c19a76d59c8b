package repository

// UnitOfWork agrupa los repositorios atados a una misma transacción.
// Quien la abre (TxRunner) es responsable del Commit o Rollback.
type UnitOfWork interface {
	Items() ItemRepository
	Lots() LotRepository
	Allocations() AllocationRepository
	Orders() OrderRepository
	Movements() InventoryMovementRepository
}
