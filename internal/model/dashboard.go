package model

import "github.com/shopspring/decimal"

// DashboardSummary aggregates sales figures for administrators.
type DashboardSummary struct {
	Totals       DashboardTotals `json:"totais"`
	Monthly      []MonthlySales  `json:"porMes"`
	TopProducts  []ProductSales  `json:"topProdutos"`
	TopCustomers []CustomerSpend `json:"topClientes"`
}

// DashboardTotals holds the overall order and revenue figures.
type DashboardTotals struct {
	OrderCount    int64           `json:"total_pedidos"`
	Sales         decimal.Decimal `json:"total_vendas"`
	AverageTicket decimal.Decimal `json:"ticket_medio"`
}

// MonthlySales is the paid revenue of one calendar month (YYYY-MM).
type MonthlySales struct {
	Month string          `json:"mes"`
	Total decimal.Decimal `json:"total_mes"`
}

// ProductSales is the paid volume of one product.
type ProductSales struct {
	Name     string          `json:"nome"`
	Quantity int64           `json:"quantidade_vendida"`
	Revenue  decimal.Decimal `json:"total_vendido"`
}

// CustomerSpend is the paid spend of one account.
type CustomerSpend struct {
	Name   string          `json:"nome"`
	Spent  decimal.Decimal `json:"total_gasto"`
	Orders int64           `json:"pedidos"`
}
