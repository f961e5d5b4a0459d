package fabric

// Provider type tokens for declared resources.
const (
	TypeResourceGroup = "azure-native:resources:ResourceGroup"

	TypeStorageAccount           = "azure-native:storage:StorageAccount"
	TypeBlobContainer            = "azure-native:storage:BlobContainer"
	InvokeListStorageAccountKeys = "azure-native:storage:listStorageAccountKeys"

	TypeServiceBusNamespace     = "azure-native:servicebus:Namespace"
	TypeServiceBusQueue         = "azure-native:servicebus:Queue"
	TypeServiceBusAuthRule      = "azure-native:servicebus:NamespaceAuthorizationRule"
	InvokeListServiceBusKeys    = "azure-native:servicebus:listNamespaceKeys"
	TypeLogAnalyticsWorkspace   = "azure-native:operationalinsights:Workspace"
	InvokeGetWorkspaceSharedKey = "azure-native:operationalinsights:getSharedKeys"
	TypeManagedEnvironment      = "azure-native:app:ManagedEnvironment"
	TypeContainerApp            = "azure-native:app:ContainerApp"

	TypeVirtualNetwork   = "azure-native:network:VirtualNetwork"
	TypeSubnet           = "azure-native:network:Subnet"
	TypePublicIPAddress  = "azure-native:network:PublicIPAddress"
	TypeNetworkInterface = "azure-native:network:NetworkInterface"
	TypeVirtualMachine   = "azure-native:compute:VirtualMachine"

	TypeAppServicePlan = "azure-native:web:AppServicePlan"
	TypeWebApp         = "azure-native:web:WebApp"

	TypeSQLServer       = "azure-native:sql:Server"
	TypeSQLDatabase     = "azure-native:sql:Database"
	TypeSQLFirewallRule = "azure-native:sql:FirewallRule"

	TypeCosmosAccount           = "azure-native:documentdb:DatabaseAccount"
	TypeCosmosSQLDatabase       = "azure-native:documentdb:SqlResourceSqlDatabase"
	TypeCosmosSQLContainer      = "azure-native:documentdb:SqlResourceSqlContainer"
	InvokeListCosmosAccountKeys = "azure-native:documentdb:listDatabaseAccountKeys"

	TypeAPIManagementService = "azure-native:apimanagement:ApiManagementService"
	TypeKeyVault             = "azure-native:keyvault:Vault"
	TypeAppInsights          = "azure-native:insights:Component"
	TypeEventSubscription    = "azure-native:eventgrid:EventSubscription"

	TypeRandomPassword = "random:index/randomPassword:RandomPassword"
)
