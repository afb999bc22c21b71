package dynamo

// DynamoDB attribute names used in update and filter expressions across all
// repos. Using constants prevents silent runtime bugs caused by key typos.
// "status" is a DynamoDB reserved word; expressions alias it as #st.
const (
	fieldIsActive  = "is_active"
	fieldUpdatedAt = "updated_at"
	fieldStatus    = "status"
)
