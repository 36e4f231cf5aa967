// Package domain models INPE wildfire-hotspot ("focos de queimada") data for
// Brazil and the feature schema used to score fire risk.
//
// # Data Source
//
// INPE publishes one CSV per day under the "diario/Brasil" directory of its
// queimadas data server, named focos_diario_br_YYYYMMDD.csv. Each row is one
// satellite-detected active-fire point (a hotspot). The archive is served as
// Latin-1; files saved locally are UTF-8.
//
// # Column Conventions
//
//	id, satelite, municipio, estado, pais, bioma   text
//	lat, lon                                       WGS-84 degrees
//	data_hora_gmt                                  "2006-01-02 15:04:05", GMT
//	municipio_id, estado_id, pais_id               IBGE numeric identifiers
//	numero_dias_sem_chuva                          days without rain
//	precipitacao                                   precipitation (mm)
//	risco_fogo                                     fire risk score, 0..1
//	frp                                            fire radiative power (MW)
//
// Empty cells are null. INPE uses -999 for an unknown risco_fogo; such rows
// fail the positive-label filter and never reach a training table.
//
// # Feature Schema
//
// The persisted training table fixes the ModelSchema: the ordered list of
// feature columns (plus the risco_fogo label) and whether each is a boolean
// indicator. Inference tables are reconciled against it before scoring; see
// [ModelSchema].
package domain
