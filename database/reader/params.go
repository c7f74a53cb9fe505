package reader

import (
	"github.com/skytin1004/empire-db/database"
)

// collectSubqueryParams walks cmd's join graph and collects the bound
// parameters of every nested subquery, in join order: for each join the
// left side before the right side, and for each subquery its own parameters
// before those of subqueries it joins itself.
func collectSubqueryParams(cmd database.JoinedCommand) []interface{} {
	var params []interface{}
	for _, join := range cmd.Joins() {
		params = appendQueryParams(params, join.LeftTable())
		params = appendQueryParams(params, join.RightTable())
	}
	return params
}

func appendQueryParams(params []interface{}, rowSet database.RowSet) []interface{} {
	query, ok := rowSet.(database.Query)
	if !ok {
		return params
	}
	subCommand := query.Command()
	params = append(params, subCommand.ParamValues()...)
	// A subquery may itself join further subqueries.
	if joined, ok := subCommand.(database.JoinedCommand); ok {
		params = append(params, collectSubqueryParams(joined)...)
	}
	return params
}
