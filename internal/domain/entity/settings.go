package entity

// OrgSettings configuración de la organización que emite la factura (el proveedor).
// Las tasas se guardan tal como llegan (texto); tax.ParseRates las interpreta.
type OrgSettings struct {
	SupplierName      string
	SupplierAddress   string
	SupplierGSTIN     string
	SupplierContact   string
	SupplierState     string
	SupplierStateCode string
	CGSTRate          string
	SGSTRate          string
}

// Claves del almacén de settings (tabla key/value del backend).
const (
	SettingSupplierName      = "supplier_name"
	SettingSupplierAddress   = "supplier_address"
	SettingSupplierGSTIN     = "supplier_gstin"
	SettingSupplierContact   = "supplier_contact"
	SettingSupplierState     = "supplier_state"
	SettingSupplierStateCode = "supplier_state_code"
	SettingCGSTRate          = "cgst_rate"
	SettingSGSTRate          = "sgst_rate"
)

// SettingsFromMap construye OrgSettings a partir del mapa key/value.
func SettingsFromMap(m map[string]string) OrgSettings {
	return OrgSettings{
		SupplierName:      m[SettingSupplierName],
		SupplierAddress:   m[SettingSupplierAddress],
		SupplierGSTIN:     m[SettingSupplierGSTIN],
		SupplierContact:   m[SettingSupplierContact],
		SupplierState:     m[SettingSupplierState],
		SupplierStateCode: m[SettingSupplierStateCode],
		CGSTRate:          m[SettingCGSTRate],
		SGSTRate:          m[SettingSGSTRate],
	}
}
