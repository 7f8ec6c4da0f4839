// Package graphql expõe uma API de consulta administrativa do mock: a tabela
// de rotas compilada e a leitura de referências do linkage.
package graphql

import (
	"context"

	"github.com/graphql-go/graphql"

	"github.com/raywall/fast-service-mock/pkg/linkage"
	"github.com/raywall/fast-service-mock/pkg/routes"
)

type AdminEngine struct {
	Schema graphql.Schema
	table  *routes.Table
	store  linkage.Store
}

func NewAdminEngine(table *routes.Table, store linkage.Store) (*AdminEngine, error) {
	engine := &AdminEngine{table: table, store: store}

	schema, err := engine.buildSchema()
	if err != nil {
		return nil, err
	}
	engine.Schema = schema
	return engine, nil
}

func (ae *AdminEngine) Execute(ctx context.Context, query string, variables map[string]interface{}) *graphql.Result {
	params := graphql.Params{
		Schema:         ae.Schema,
		RequestString:  query,
		VariableValues: variables,
		Context:        ctx,
	}
	return graphql.Do(params)
}
