package core

// FieldValue exposes the filterable fields of each record kind under the
// names the presentation layer uses in its constraint sets. The filter
// engine itself is kind-agnostic; these accessors are the only per-kind
// input it needs.

func (f Farm) FieldValue(name string) (any, bool) {
	switch name {
	case "id":
		return f.ID, true
	case "name":
		return f.Name, true
	case "location":
		return f.Location, true
	case "areaUnit":
		return string(f.AreaUnit), true
	}
	return nil, false
}

func (c Crop) FieldValue(name string) (any, bool) {
	switch name {
	case "id":
		return c.ID, true
	case "farmId":
		return c.FarmID, true
	case "name":
		return c.Name, true
	case "variety":
		return c.Variety, true
	case "growthStage":
		return string(c.GrowthStage), true
	case "status":
		return string(c.Status), true
	}
	return nil, false
}

func (t Task) FieldValue(name string) (any, bool) {
	switch name {
	case "id":
		return t.ID, true
	case "farmId":
		return t.FarmID, true
	case "cropId":
		if t.CropID == nil {
			return nil, true
		}
		return *t.CropID, true
	case "title":
		return t.Title, true
	case "priority":
		return string(t.Priority), true
	case "status":
		return string(t.Status), true
	}
	return nil, false
}

func (tx Transaction) FieldValue(name string) (any, bool) {
	switch name {
	case "id":
		return tx.ID, true
	case "farmId":
		return tx.FarmID, true
	case "type":
		return string(tx.Type), true
	case "category":
		return string(tx.Category), true
	}
	return nil, false
}
