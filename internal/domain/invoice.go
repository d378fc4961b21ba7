// Package domain — invoice.go define os tipos da consulta de boletos.
// A Zoop é intermediária de pagamentos: o boleto é emitido por uma empresa
// cadastrada e o estabelecimento real aparece na descrição.
package domain

// Company é uma empresa emissora cadastrada.
type Company struct {
	ID           string `json:"id"`
	TradeName    string `json:"nome_fantasia"`
	LegalName    string `json:"razao_social"`
	ContactEmail string `json:"contato_email"`
	Phone        string `json:"telefone"`
}

// Invoice é um boleto emitido via plataforma.
type Invoice struct {
	InvoiceID   string  `json:"boleto_id"`
	IssuerID    string  `json:"emissor_id"`
	Amount      float64 `json:"valor"`
	DueDate     string  `json:"vencimento"`
	PayableTo   string  `json:"pagavel_para"`
	PayableDoc  string  `json:"documento_pagavel"`
	Status      string  `json:"status"`
	Description string  `json:"descricao"`
}
