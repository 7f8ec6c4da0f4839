package graphql

import (
	"github.com/graphql-go/graphql"
)

var parameterType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Parameter",
	Fields: graphql.Fields{
		"name":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"in":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"required": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
	},
})

var operationType = graphql.NewObject(graphql.ObjectConfig{
	Name:        "Operation",
	Description: "Operação compilada a partir do contrato, na ordem de precedência.",
	Fields: graphql.Fields{
		"id":         &graphql.Field{Type: graphql.String},
		"method":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"path":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"behavior":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"statuses":   &graphql.Field{Type: graphql.NewList(graphql.Int)},
		"security":   &graphql.Field{Type: graphql.NewList(graphql.String)},
		"parameters": &graphql.Field{Type: graphql.NewList(parameterType)},
	},
})

var referenceType = graphql.NewObject(graphql.ObjectConfig{
	Name:        "Reference",
	Description: "Body gravado por uma operação x-mock-store.",
	Fields: graphql.Fields{
		"id":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"found":   &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"payload": &graphql.Field{Type: graphql.String, Description: "Body gravado, em JSON."},
		"value":   &graphql.Field{Type: graphql.String, Description: "Trecho do body no caminho pedido, em JSON."},
	},
})

func (ae *AdminEngine) buildSchema() (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"operations": &graphql.Field{
				Type: graphql.NewList(operationType),
				Args: graphql.FieldConfigArgument{
					"method": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: ae.resolveOperations,
			},
			"operation": &graphql.Field{
				Type: operationType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: ae.resolveOperation,
			},
			"reference": &graphql.Field{
				Type: referenceType,
				Args: graphql.FieldConfigArgument{
					"id":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"path": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: ae.resolveReference,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query})
}
