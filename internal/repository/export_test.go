package repository

// Database helpers shared with the repository_test package
var (
	RequireDB      = requireDB
	SeedEnrollment = seedEnrollment
	CreateFee      = createFee
)
