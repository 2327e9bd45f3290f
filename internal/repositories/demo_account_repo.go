package repositories

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/BradenHooton/accountdesk/internal/models"
)

// DemoAccountRepository serves a fixed set of records from memory.
// Used with RECORDS_SOURCE=demo and in tests.
type DemoAccountRepository struct {
	records map[string]models.AccountRecord
	fetches atomic.Int64
}

// NewDemoAccountRepository normalizes rows with the same rules as the database adapter
func NewDemoAccountRepository(keyColumn, dateMarker string, rows []map[string]any) *DemoAccountRepository {
	repo := &DemoAccountRepository{
		records: make(map[string]models.AccountRecord, len(rows)),
	}

	for _, row := range rows {
		key, ok := row[keyColumn].(string)
		if !ok {
			continue
		}
		if _, exists := repo.records[key]; exists {
			continue
		}

		columns := make([]string, 0, len(row))
		for col := range row {
			columns = append(columns, col)
		}
		sort.Strings(columns)

		values := make([]any, len(columns))
		for i, col := range columns {
			values[i] = row[col]
		}
		repo.records[key] = normalizeRow(columns, values, dateMarker)
	}

	return repo
}

// FetchByKey returns the record whose key column equals key exactly
func (r *DemoAccountRepository) FetchByKey(ctx context.Context, key string) (models.AccountRecord, error) {
	r.fetches.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, models.NewStoreError("fetch account record", err)
	}

	record, ok := r.records[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return record, nil
}

// Keys lists the available account keys in sorted order
func (r *DemoAccountRepository) Keys() []string {
	keys := make([]string, 0, len(r.records))
	for k := range r.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fetches reports how many times FetchByKey was called
func (r *DemoAccountRepository) Fetches() int64 {
	return r.fetches.Load()
}

// DemoAccountRows returns the sample accounts used by demo mode
func DemoAccountRows() []map[string]any {
	return []map[string]any{
		{
			"idcuenta": "1275583", "idcli": "816207", "canal_registro": "CoreBank", "promotor_adn": "PEÑA CHOQUE ANGELA",
			"nombre_cliente": "CARRILLO CIERTO CLELIA EUTROPIA", "asesor": "PEÑA CHOQUE ANGELA", "region": "CENTRO ORIENTE",
			"establecimiento": "OFICINA - AUCAYACU", "tramo": "2. TRAMO CONTENCION",

			"monto_desembolsado": 26132.0, "estado_contable": "REFINANCIADO", "tasa_original_desembolso": 15.00,
			"tasa_actual": 15.00, "fecha_desembolso": "2024-04-25", "total_cuotas": 36,
			"clasificacion_externa": "4 Perdida", "nro_cuotas_pagado": 13, "top_contencion": "NO TOP (Asesor)",
			"cuotas_no_pagadas": 23, "frecuencia": "05:Mensual",

			"saldo_capital_actual": 18166.2, "dias_atraso": 48, "monto_cuota_actual": 1839.4,
			"fecha_ultimo_pago": "2025-07-26", "fecha_vence_cuota": "2025-07-01", "otros": 26.34,
			"intereses": 424.50, "int_comp_mor": 19.98,

			"fecha_ultima_reprogramacion": "1900-01-01", "tipo_de_repro": "NINGUNO", "nro_de_reprogramaciones": 0,

			"producto": "PYME - CAMPAÑA REFINANCIAMIENTO", "tipo_cliente": "Compartido",
			"cliente_con_descuento": "SIN DESCUENTO DE INTERESES", "cuota_con_condenacion": "NO",
			"fecha_cuota_con_condenacion": "1900-01-01", "fecha_ultima_condonacion": "1900-01-01",
			"campania_refinanciamiento": "—", "impacto": "—", "fecha_de_impacto": "2025-08-01", "campania": "—",

			"total_vencido": 1839.43, "clasificacion_interna": "3 Dudoso", "clasificacion_externa_det": "4 Perdida",
			"clasificacion_final": "3 Dudoso", "dni": "23011773",

			"detalle_cuotas_ej1": "26.3 | 1,368.6 | 444.48", "detalle_cuotas_ej2": "683.2 | 231.2 | 940.8",
			"otros_ej1": "NO PAGO | PAGO CON | Dscto. MAX", "otros_ej2": "COBs | Fecha Depósito 0",
		},
		{
			"idcuenta": "2000001", "idcli": "900111", "canal_registro": "Canal Web", "promotor_adn": "PEREZ RUIZ",
			"nombre_cliente": "GARCÍA TORRES", "asesor": "LUIS QUISPE", "region": "NORTE",
			"establecimiento": "OFICINA - PIURA", "tramo": "1. REGULAR",

			"monto_desembolsado": 18000, "estado_contable": "VIGENTE", "tasa_original_desembolso": 17.5,
			"tasa_actual": 16.2, "fecha_desembolso": "2023-11-04", "total_cuotas": 24,
			"clasificacion_externa": "2 CPP", "nro_cuotas_pagado": 8, "top_contencion": "—",
			"cuotas_no_pagadas": 2, "frecuencia": "Mensual",

			"saldo_capital_actual": 9200, "dias_atraso": 5, "monto_cuota_actual": 950,
			"fecha_ultimo_pago": "2025-07-10", "fecha_vence_cuota": "2025-08-10", "otros": 0,
			"intereses": 150, "int_comp_mor": 2.5,

			"fecha_ultima_reprogramacion": "2024-06-01", "tipo_de_repro": "AMPLIACIÓN PLAZO", "nro_de_reprogramaciones": 1,

			"producto": "PYME", "tipo_cliente": "Individual",
			"cliente_con_descuento": "—", "cuota_con_condenacion": "NO",
			"fecha_cuota_con_condenacion": "—", "fecha_ultima_condonacion": "—",
			"campania_refinanciamiento": "—", "impacto": "—", "fecha_de_impacto": "—", "campania": "Campaña Julio",

			"total_vencido": 980, "clasificacion_interna": "1 Normal", "clasificacion_externa_det": "2 CPP",
			"clasificacion_final": "1 Normal", "dni": "44556677",

			"detalle_cuotas_ej1": "23.4 | 900 | 80", "detalle_cuotas_ej2": "—",
			"otros_ej1": "—", "otros_ej2": "—",
		},
	}
}
