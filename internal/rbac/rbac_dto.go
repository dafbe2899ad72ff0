package rbac

import "go-lms/internal/domain"

type EnforceRequest = domain.EnforceRequest

type EnforceResponse = domain.EnforceResponse

type PermissionResponse = domain.PermissionResponse
