package entity

import (
	"fmt"
	"time"
)

// ItemType clasifica un ítem del maestro.
type ItemType string

// Tipos de ítem.
const (
	ItemTypeFinishedGood ItemType = "FINISHED_GOOD" // producto terminado
	ItemTypeRawMaterial  ItemType = "RAW_MATERIAL"  // materia prima
	ItemTypeInProcess    ItemType = "IN_PROCESS"    // semielaborado
	ItemTypeBundle       ItemType = "BUNDLE"        // kit / paquete
)

// ParseItemType valida un tipo de ítem recibido como texto.
func ParseItemType(s string) (ItemType, error) {
	switch t := ItemType(s); t {
	case ItemTypeFinishedGood, ItemTypeRawMaterial, ItemTypeInProcess, ItemTypeBundle:
		return t, nil
	}
	return "", fmt.Errorf("tipo de ítem desconocido %q", s)
}

// Item es la identidad de un producto o material. Para la asignación solo importan ID y tipo.
type Item struct {
	ID        string
	Code      string
	Name      string
	Type      ItemType
	CreatedAt time.Time
}
