package entity

// Roles válidos en el token del usuario (emitido por el servicio de identidad).
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"    // encargado de sucursal
	RoleTechnician = "technician" // técnico de reparaciones
	RoleCashier    = "cashier"    // punto de venta
)

// Caller identifica a quien autoriza una operación. Se pasa explícito a cada caso de uso;
// nunca se toma de un estado global de sesión.
type Caller struct {
	UserID    string
	CompanyID string
	Role      string
}
